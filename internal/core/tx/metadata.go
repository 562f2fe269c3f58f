package tx

import (
	"encoding/base64"
	"strings"

	"github.com/LeJamon/goOCR2/internal/core/types"
)

// Affected node kinds
const (
	NodeCreated  = "CreatedNode"
	NodeModified = "ModifiedNode"
	NodeDeleted  = "DeletedNode"
)

// Program log line prefixes.
const (
	LogPrefix    = "Program log: "
	ReturnPrefix = "Program return: "
	DataPrefix   = "Program data: "
)

// AffectedNode describes one account touched by a transaction.
type AffectedNode struct {
	NodeType         string        `json:"node_type"`
	EntryType        string        `json:"entry_type"`
	Key              types.Address `json:"key"`
	PreviousLamports uint64        `json:"previous_lamports,omitempty"`
	FinalLamports    uint64        `json:"final_lamports,omitempty"`
}

// Metadata tracks changes made by a transaction
type Metadata struct {
	AffectedNodes []AffectedNode `json:"affected_nodes"`
}

// Event is a structured record emitted by a program, also logged as a
// "Program data:" line.
type Event struct {
	Program types.Address `json:"program"`
	Name    string        `json:"name"`
	Data    []byte        `json:"data"`
}

// ApplyResult contains the result of applying a transaction
type ApplyResult struct {
	Result     Result    `json:"-"`
	Applied    bool      `json:"applied"`
	Fee        uint64    `json:"fee"`
	Slot       uint64    `json:"slot"`
	TxHash     [32]byte  `json:"-"`
	Logs       []string  `json:"logs"`
	ReturnData []byte    `json:"return_data,omitempty"`
	Events     []Event   `json:"-"`
	Metadata   *Metadata `json:"metadata,omitempty"`
	Message    string    `json:"message"`
}

// Err returns the failure as an error matching its class, or nil.
func (r ApplyResult) Err() error {
	if r.Result.IsSuccess() {
		return nil
	}
	return &ResultError{Result: r.Result, Msg: r.Message}
}

// ParseReturnData extracts the payload of the last "Program return:" line.
func ParseReturnData(logs []string) ([]byte, bool) {
	for i := len(logs) - 1; i >= 0; i-- {
		if !strings.HasPrefix(logs[i], ReturnPrefix) {
			continue
		}
		fields := strings.Fields(strings.TrimPrefix(logs[i], ReturnPrefix))
		if len(fields) == 0 {
			return nil, false
		}
		data, err := base64.StdEncoding.DecodeString(fields[len(fields)-1])
		if err != nil {
			return nil, false
		}
		return data, true
	}
	return nil, false
}
