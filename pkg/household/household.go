package household

// Household is the owner of a calendar. Every event, tag, and person row is
// scoped to exactly one household; the household id doubles as the calendar id.
type Household struct {
	Id       int
	Uid      string
	Name     string
	Settings Settings
}

type Settings struct {
	Timezone string
	// GoogleCalendarId selects the external calendar merged into windowed
	// reads. Empty means no external feed.
	GoogleCalendarId string
}
