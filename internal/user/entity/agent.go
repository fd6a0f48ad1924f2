package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DefaultCapabilities is the fixed capability set every agent receives.
var DefaultCapabilities = Capabilities{"code_generation", "data_processing", "consciousness_analysis"}

// AgentStatusActive is the only status the factory assigns.
const AgentStatusActive = "active"

// Capabilities is a JSONB-backed string list.
type Capabilities []string

func (c Capabilities) Value() (driver.Value, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c)
}

func (c *Capabilities) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	case nil:
		*c = nil
		return nil
	default:
		return fmt.Errorf("capabilities: unsupported scan type %T", src)
	}
}

// Agent is a row in the `agents` table. Intelligence is a snapshot of the
// owning user's level at creation time and is never resynchronized.
type Agent struct {
	ID           string       `db:"id" json:"id"`
	UserID       string       `db:"user_id" json:"user_id"`
	Name         string       `db:"name" json:"name"`
	Intelligence int          `db:"intelligence" json:"intelligence"`
	Capabilities Capabilities `db:"capabilities" json:"capabilities"`
	Status       string       `db:"status" json:"status"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
}
