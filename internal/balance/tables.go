package balance

import "github.com/talgya/hexfront/internal/economy"

// Default returns the stock balance tables.
func Default() *Config {
	return &Config{
		Buildings: map[BuildingType]BuildingSpec{
			Headquarters: {
				Name:     "Headquarters",
				MaxLevel: 20,
				Cost: costs(
					[]float64{90, 108, 130, 156, 187},
					[]float64{80, 96, 115, 138, 166},
					[]float64{70, 84, 101, 121, 145},
				),
				BuildTime: []int{90, 108, 130, 156, 187},
			},
			Warehouse: {
				Name:     "Warehouse",
				MaxLevel: 20,
				Cost: costs(
					[]float64{60, 72, 86, 103, 124},
					[]float64{50, 60, 72, 86, 103},
					[]float64{40, 48, 58, 70, 84},
				),
				BuildTime: []int{60, 72, 86, 103, 124},
				Capacity:  []float64{1000, 1200, 1440, 1728, 2074},
			},
			Woodcutter: producer("Woodcutter", economy.Wood, costs(
				[]float64{50, 60, 72, 86, 103},
				[]float64{60, 72, 86, 103, 124},
				[]float64{40, 48, 58, 70, 84},
			), []int{60, 72, 86, 103, 124}),
			ClayPit: producer("Clay Pit", economy.Clay, costs(
				[]float64{60, 72, 86, 103, 124},
				[]float64{50, 60, 72, 86, 103},
				[]float64{40, 48, 58, 70, 84},
			), []int{60, 72, 86, 103, 124}),
			IronMine: producer("Iron Mine", economy.Iron, costs(
				[]float64{75, 90, 108, 130, 156},
				[]float64{65, 78, 94, 113, 136},
				[]float64{50, 60, 72, 86, 103},
			), []int{75, 90, 108, 130, 156}),
			Barracks: {
				Name:     "Barracks",
				MaxLevel: 25,
				Cost: costs(
					[]float64{200, 240, 288, 346, 415},
					[]float64{170, 204, 245, 294, 353},
					[]float64{90, 108, 130, 156, 187},
				),
				BuildTime: []int{180, 216, 259, 311, 373},
			},
			Wall: {
				Name:     "Wall",
				MaxLevel: 20,
				Cost: costs(
					[]float64{50, 60, 72, 86, 103},
					[]float64{100, 120, 144, 173, 208},
					[]float64{20, 24, 29, 35, 42},
				),
				BuildTime: []int{120, 144, 173, 208, 250},
				// 5% per level.
				DefenseBonus: []float64{
					0.05, 0.10, 0.15, 0.20, 0.25, 0.30, 0.35, 0.40, 0.45, 0.50,
					0.55, 0.60, 0.65, 0.70, 0.75, 0.80, 0.85, 0.90, 0.95, 1.00,
				},
			},
		},
		Units: map[UnitType]UnitSpec{
			Spearman: {
				Name: "Spearman", Cost: economy.NewAmounts(50, 30, 10),
				Attack: 10, Defense: 15, Speed: 18, Carry: 25, RecruitTime: 120,
			},
			Swordsman: {
				Name: "Swordsman", Cost: economy.NewAmounts(30, 30, 70),
				Attack: 25, Defense: 40, Speed: 22, Carry: 15, RecruitTime: 240,
			},
			Axeman: {
				Name: "Axeman", Cost: economy.NewAmounts(60, 30, 40),
				Attack: 40, Defense: 10, Speed: 18, Carry: 20, RecruitTime: 210,
			},
			Scout: {
				Name: "Scout", Cost: economy.NewAmounts(50, 50, 20),
				Attack: 0, Defense: 2, Speed: 9, Carry: 80, RecruitTime: 90,
			},
			HeavyCavalry: {
				Name: "Heavy Cavalry", Cost: economy.NewAmounts(125, 100, 250),
				Attack: 150, Defense: 120, Speed: 11, Carry: 50, RecruitTime: 600,
			},
		},
	}
}

func producer(name string, res economy.ResourceType, cost [economy.NumResources][]float64, buildTime []int) BuildingSpec {
	return BuildingSpec{
		Name:       name,
		MaxLevel:   30,
		Cost:       cost,
		BuildTime:  buildTime,
		Produces:   true,
		Resource:   res,
		Production: []float64{30, 35, 41, 47, 55},
	}
}

func costs(wood, clay, iron []float64) [economy.NumResources][]float64 {
	return [economy.NumResources][]float64{economy.Wood: wood, economy.Clay: clay, economy.Iron: iron}
}
