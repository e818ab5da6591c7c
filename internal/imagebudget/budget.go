package imagebudget

import "fmt"

// Budget describes a payload ceiling imposed by the vision collaborator.
// HardLimit is the documented ceiling; Margin is kept free below it to absorb
// base64 and request-envelope overhead.
type Budget struct {
	HardLimit int `yaml:"hard_limit" json:"hardLimit"`
	Margin    int `yaml:"margin" json:"margin"`
}

var (
	// ServerBudget keeps the base64 form of the target under 5 MiB.
	ServerBudget = Budget{HardLimit: 5 << 20, Margin: 3 << 19}

	// ClientBudget is applied before upload. It shares the server target so
	// an image the client re-encoded is never re-encoded again on arrival.
	ClientBudget = ServerBudget
)

// Target is the largest raw payload accepted without compression.
func (b Budget) Target() int {
	return b.HardLimit - b.Margin
}

// Exceeds reports whether n raw bytes need compressing.
func (b Budget) Exceeds(n int) bool {
	return n > b.Target()
}

// FitsEncoded reports whether n raw bytes stay under HardLimit once base64 encoded.
func (b Budget) FitsEncoded(n int) bool {
	return EncodedLen(n) <= b.HardLimit
}

func (b Budget) Validate() error {
	if b.HardLimit <= 0 {
		return fmt.Errorf("imagebudget: hard limit must be positive, got %d", b.HardLimit)
	}
	if b.Margin < 0 || b.Margin >= b.HardLimit {
		return fmt.Errorf("imagebudget: margin %d must be in [0,%d)", b.Margin, b.HardLimit)
	}
	return nil
}

// EncodedLen is the padded base64 length of n bytes.
func EncodedLen(n int) int {
	return (n + 2) / 3 * 4
}
