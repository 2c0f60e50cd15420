package entity

// Airport represents an airport that can be used as origin or destination
type Airport struct {
	Code     string
	Name     string
	CityCode string
	CityName string
	TzName   string
}

// Label returns "CODE (Name, City)" for selection lists
func (a Airport) Label() string {
	switch {
	case a.Name != "" && a.CityName != "":
		return a.Code + " (" + a.Name + ", " + a.CityName + ")"
	case a.Name != "":
		return a.Code + " (" + a.Name + ")"
	default:
		return a.Code
	}
}
