package tile

// Catalog lists the base tile set the server deals from. The client never
// needs it to play; it backs the tile sheet in the headless report and gives
// tests realistic encodings.
var Catalog = []Tile{
	{Type: "straight_road", Edges: Edges{Road, Field, Road, Field}, Center: CenterRoad},
	{Type: "curve_road", Edges: Edges{Road, Field, Field, Road}, Center: CenterRoad},
	{Type: "t_crossroad", Edges: Edges{Road, Road, Field, Road}, Center: CenterCrossroad},
	{Type: "x_crossroad", Edges: Edges{Road, Road, Road, Road}, Center: CenterCrossroad},
	{Type: "city_edge", Edges: Edges{City, Field, Field, Field}},
	{Type: "city_edge_road", Edges: Edges{City, Field, Road, Road}, Center: CenterRoad},
	{Type: "city_edge_road_right", Edges: Edges{City, Road, Road, Field}, Center: CenterRoad},
	{Type: "city_two_adj", Edges: Edges{City, City, Field, Field}, Center: CenterCityHub},
	{Type: "city_two_adj_shield", Edges: Edges{City, City, Field, Field}, Center: CenterCityHub, Shield: true},
	{Type: "city_two_opp", Edges: Edges{City, Field, City, Field}},
	{Type: "city_three", Edges: Edges{City, City, Field, City}, Center: CenterCityHub},
	{Type: "city_three_shield", Edges: Edges{City, City, Field, City}, Center: CenterCityHub, Shield: true},
	{Type: "city_three_road", Edges: Edges{City, City, Road, City}, Center: CenterCityHub},
	{Type: "city_full", Edges: Edges{City, City, City, City}, Center: CenterCityHub, Shield: true},
	{Type: "monastery", Edges: Edges{Field, Field, Field, Field}, Center: CenterMonastery},
	{Type: "monastery_road", Edges: Edges{Field, Field, Road, Field}, Center: CenterMonastery},
	{Type: "start", Edges: Edges{City, Road, Field, Road}, Center: CenterRoad},
}

// Lookup returns the catalog tile with the given type name.
func Lookup(typeName string) (Tile, bool) {
	for _, t := range Catalog {
		if t.Type == typeName {
			return t, true
		}
	}
	return Tile{}, false
}
