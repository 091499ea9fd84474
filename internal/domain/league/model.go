package league

import "fmt"

// League is a source league, keyed by its canonical short code.
type League struct {
	ID   int64
	Code string
	Name string
	URL  string
}

func (l League) Validate() error {
	if l.Code == "" {
		return fmt.Errorf("league code is required")
	}
	if l.Name == "" {
		return fmt.Errorf("league name is required")
	}

	return nil
}
