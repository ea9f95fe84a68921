package registry

import (
	"time"

	"github.com/google/uuid"
)

type NewAlert struct {
	CustomerID string
	RiskScore  int
}

type Alert struct {
	ID          uuid.UUID
	CustomerID  string
	RiskScore   int
	DateCreated time.Time
}
