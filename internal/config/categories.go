package config

// Command categories, as shown in help.
const (
	CategoryInformation = "🕯️ Information"
	CategorySettings    = "⚙️ Settings"
	CategoryGameplay    = "🎲 Gameplay"
	CategoryMaintenance = "🛠️ Maintenance"
)

// CategoryWeights orders categories in help; lighter comes first and
// unknown categories sink to the bottom.
var CategoryWeights = map[string]int{
	CategoryInformation: 0,
	CategoryGameplay:    20,
	CategorySettings:    50,
	CategoryMaintenance: 60,
}

func CategoryWeight(category string) int {
	if w, ok := CategoryWeights[category]; ok {
		return w
	}
	return 1000
}
