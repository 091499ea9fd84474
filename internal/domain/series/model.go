package series

// Series is a division name such as "Series 12" or "Chicago 7 SW".
// Names are stored globally and linked to the leagues that use them.
type Series struct {
	ID   int64
	Name string
}
