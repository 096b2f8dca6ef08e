package person

type Person struct {
	Id    int
	Name  string
	Color string
}
