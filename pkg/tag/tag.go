package tag

type Tag struct {
	Id    int
	Name  string
	Color string
}
