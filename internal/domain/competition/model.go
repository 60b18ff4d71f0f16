package competition

// Competition is a league or cup that groups matches.
type Competition struct {
	ID   string
	Name string
}
