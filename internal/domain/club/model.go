package club

// Club is identified by its normalized name across every league.
type Club struct {
	ID   int64
	Name string
}
