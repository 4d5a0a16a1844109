package review

// Profession is a review discipline with its system prompt.
type Profession struct {
	ID           string
	Name         string
	SystemPrompt string
}

// Prefix is the id prefix of the profession's review items.
func (p Profession) Prefix() string {
	return prefixOf(p.ID)
}

func prefixOf(id string) string {
	if len(id) <= 4 {
		return id
	}
	return id[:4]
}

const promptPreamble = "You are a senior reviewer of architectural feasibility-study reports. " +
	"You check reports against the applicable national standards (GB, JGJ and CECS series) " +
	"and local regulations, and you give concrete, actionable findings. "

var professions = []Profession{
	{
		ID:   "architecture",
		Name: "Architecture",
		SystemPrompt: promptPreamble + "Your discipline is architecture. Focus on site planning, " +
			"building layout, floor area and plot ratios, fire separation distances, accessibility, " +
			"daylighting and the functional fit of the design to its program.",
	},
	{
		ID:   "structure",
		Name: "Structural engineering",
		SystemPrompt: promptPreamble + "Your discipline is structural engineering. Focus on the " +
			"structural system, seismic fortification level, foundation scheme, load assumptions, " +
			"material grades and the consistency of the structural design with geotechnical data.",
	},
	{
		ID:   "plumbing",
		Name: "Water supply and drainage",
		SystemPrompt: promptPreamble + "Your discipline is water supply and drainage. Focus on water " +
			"demand estimates, supply pressure zoning, drainage and stormwater systems, hot water, " +
			"water saving measures and connection to municipal networks.",
	},
	{
		ID:   "electrical",
		Name: "Electrical engineering",
		SystemPrompt: promptPreamble + "Your discipline is electrical engineering. Focus on load " +
			"calculation, power supply grade and sources, transformer sizing, emergency power, " +
			"lighting, lightning protection, grounding and low-voltage systems.",
	},
	{
		ID:   "hvac",
		Name: "HVAC",
		SystemPrompt: promptPreamble + "Your discipline is heating, ventilation and air conditioning. " +
			"Focus on heating and cooling loads, plant selection, ventilation rates, smoke control " +
			"interfaces, noise and vibration, and the efficiency of the proposed systems.",
	},
	{
		ID:   "fire_protection",
		Name: "Fire protection",
		SystemPrompt: promptPreamble + "Your discipline is fire protection. Focus on fire resistance " +
			"ratings, compartmentation, evacuation routes and widths, fire water supply, sprinkler " +
			"and alarm systems, smoke exhaust and fire brigade access.",
	},
	{
		ID:   "energy_efficiency",
		Name: "Energy efficiency",
		SystemPrompt: promptPreamble + "Your discipline is building energy efficiency. Focus on the " +
			"envelope thermal performance, window-to-wall ratios, equipment efficiency, renewable " +
			"energy use, metering and compliance with green building targets.",
	},
}

var professionsByID = func() map[string]Profession {
	m := make(map[string]Profession, len(professions))
	for _, p := range professions {
		m[p.ID] = p
	}
	return m
}()

// Professions returns the supported professions in display order.
func Professions() []Profession {
	out := make([]Profession, len(professions))
	copy(out, professions)
	return out
}

// LookupProfession finds a profession by id.
func LookupProfession(id string) (Profession, bool) {
	p, ok := professionsByID[id]
	return p, ok
}

// IsProfession reports whether id is a supported profession.
func IsProfession(id string) bool {
	_, ok := professionsByID[id]
	return ok
}
