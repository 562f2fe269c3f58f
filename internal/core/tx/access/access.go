// Package access implements access controllers: owner-managed lists of
// addresses that gate privileged instructions of other programs.
package access

import (
	"github.com/LeJamon/goOCR2/internal/core/ledger/entry"
	"github.com/LeJamon/goOCR2/internal/core/ledger/keylet"
	"github.com/LeJamon/goOCR2/internal/core/ledger/layout"
	"github.com/LeJamon/goOCR2/internal/core/tx"
	"github.com/LeJamon/goOCR2/internal/core/types"
)

const (
	// MaxAddresses is the capacity of an access list
	MaxAddresses = 32

	// ControllerSize is discriminator(8) + owner(32) + len(8) + 32 addresses
	ControllerSize = 8 + 32 + 8 + MaxAddresses*types.AddressLength
)

// Instruction kinds
const (
	KindInitialize   = "initialize"
	KindAddAccess    = "add_access"
	KindRemoveAccess = "remove_access"
)

func init() {
	tx.Register(keylet.AccessProgram, KindInitialize, func() tx.Handler { return &Initialize{} })
	tx.Register(keylet.AccessProgram, KindAddAccess, func() tx.Handler { return &AddAccess{} })
	tx.Register(keylet.AccessProgram, KindRemoveAccess, func() tx.Handler { return &RemoveAccess{} })
}

// Controller is the state of an access controller.
type Controller struct {
	Owner     types.Address   `json:"owner"`
	Addresses []types.Address `json:"addresses"`
}

// Encode serializes the controller into its account layout.
func (c *Controller) Encode() ([]byte, error) {
	w := layout.NewWriter(entry.TypeAccessController, ControllerSize)
	w.Address(c.Owner)
	w.U64(uint64(len(c.Addresses)))
	for _, a := range c.Addresses {
		w.Address(a)
	}
	w.Pad(ControllerSize)
	return w.Bytes()
}

// Decode parses controller account data.
func Decode(data []byte) (*Controller, error) {
	r := layout.NewReader(data)
	c := &Controller{Owner: r.Address()}
	n := r.U64()
	if n > MaxAddresses {
		return nil, layout.ErrShortBuffer
	}
	c.Addresses = make([]types.Address, 0, n)
	for i := uint64(0); i < n; i++ {
		c.Addresses = append(c.Addresses, r.Address())
	}
	return c, r.Err()
}

// Has reports whether addr is on the list.
func (c *Controller) Has(addr types.Address) bool {
	for _, a := range c.Addresses {
		if a == addr {
			return true
		}
	}
	return false
}

// HasAccess reports whether addr is listed by the controller account.
// A missing or foreign controller grants nothing.
func HasAccess(view tx.AccountReader, controller, addr types.Address) bool {
	if controller.IsZero() {
		return false
	}
	raw, err := view.Read(keylet.AccessController(controller))
	if err != nil || raw == nil || raw.Owner != keylet.AccessProgram {
		return false
	}
	if !entry.TypeAccessController.Matches(raw.Data) {
		return false
	}
	c, err := Decode(raw.Data)
	if err != nil {
		return false
	}
	return c.Has(addr)
}

// Initialize sets up an empty controller on a pre-allocated account.
type Initialize struct {
	Controller types.Address `codec:"controller" json:"controller"`
	Owner      types.Address `codec:"owner" json:"owner"`
}

func (i *Initialize) Program() types.Address { return keylet.AccessProgram }
func (i *Initialize) Kind() string           { return KindInitialize }

// Validate validates the Initialize instruction
func (i *Initialize) Validate() error {
	if i.Controller.IsZero() || i.Owner.IsZero() {
		return tx.Malformed("initialize: missing address")
	}
	return nil
}

// Apply applies the Initialize instruction
func (i *Initialize) Apply(ctx *tx.ApplyContext) tx.Result {
	if !ctx.IsSigner(i.Owner) {
		return tx.TecNO_PERMISSION
	}
	k := keylet.AccessController(i.Controller)
	raw, err := ctx.View.Read(k)
	if err != nil {
		return tx.TecINTERNAL
	}
	if raw == nil {
		return tx.TecNO_ENTRY
	}
	if raw.Owner != keylet.AccessProgram {
		return tx.TecWRONG_OWNER
	}
	if len(raw.Data) != ControllerSize {
		return tx.TecACCOUNT_SIZE
	}
	if entry.Detect(raw.Data) != entry.TypeAny {
		return tx.TecALREADY_INITIALIZED
	}
	c := &Controller{Owner: i.Owner}
	if raw.Data, err = c.Encode(); err != nil {
		return tx.TecINTERNAL
	}
	return ctx.Store(k, raw)
}

// AddAccess appends an address to the list. Adding a listed address is a no-op.
type AddAccess struct {
	Controller types.Address `codec:"controller" json:"controller"`
	Owner      types.Address `codec:"owner" json:"owner"`
	Address    types.Address `codec:"address" json:"address"`
}

func (i *AddAccess) Program() types.Address { return keylet.AccessProgram }
func (i *AddAccess) Kind() string           { return KindAddAccess }

// Validate validates the AddAccess instruction
func (i *AddAccess) Validate() error {
	if i.Controller.IsZero() || i.Owner.IsZero() || i.Address.IsZero() {
		return tx.Malformed("add_access: missing address")
	}
	return nil
}

// Apply applies the AddAccess instruction
func (i *AddAccess) Apply(ctx *tx.ApplyContext) tx.Result {
	raw, c, r := load(ctx, i.Controller, i.Owner)
	if !r.IsSuccess() {
		return r
	}
	if c.Has(i.Address) {
		return tx.TesSUCCESS
	}
	if len(c.Addresses) >= MaxAddresses {
		return tx.TecLIST_FULL
	}
	c.Addresses = append(c.Addresses, i.Address)
	return save(ctx, i.Controller, raw, c)
}

// RemoveAccess drops an address from the list.
type RemoveAccess struct {
	Controller types.Address `codec:"controller" json:"controller"`
	Owner      types.Address `codec:"owner" json:"owner"`
	Address    types.Address `codec:"address" json:"address"`
}

func (i *RemoveAccess) Program() types.Address { return keylet.AccessProgram }
func (i *RemoveAccess) Kind() string           { return KindRemoveAccess }

// Validate validates the RemoveAccess instruction
func (i *RemoveAccess) Validate() error {
	if i.Controller.IsZero() || i.Owner.IsZero() || i.Address.IsZero() {
		return tx.Malformed("remove_access: missing address")
	}
	return nil
}

// Apply applies the RemoveAccess instruction
func (i *RemoveAccess) Apply(ctx *tx.ApplyContext) tx.Result {
	raw, c, r := load(ctx, i.Controller, i.Owner)
	if !r.IsSuccess() {
		return r
	}
	kept := c.Addresses[:0]
	for _, a := range c.Addresses {
		if a != i.Address {
			kept = append(kept, a)
		}
	}
	c.Addresses = kept
	return save(ctx, i.Controller, raw, c)
}

func load(ctx *tx.ApplyContext, controller, owner types.Address) (*tx.Account, *Controller, tx.Result) {
	raw, r := ctx.Load(keylet.AccessController(controller), keylet.AccessProgram)
	if !r.IsSuccess() {
		return nil, nil, r
	}
	c, err := Decode(raw.Data)
	if err != nil {
		return nil, nil, tx.TecINVALID_ACCOUNT
	}
	if c.Owner != owner || !ctx.IsSigner(owner) {
		return nil, nil, tx.TecNO_PERMISSION
	}
	return raw, c, tx.TesSUCCESS
}

func save(ctx *tx.ApplyContext, controller types.Address, raw *tx.Account, c *Controller) tx.Result {
	data, err := c.Encode()
	if err != nil {
		return tx.TecINTERNAL
	}
	raw.Data = data
	return ctx.Store(keylet.AccessController(controller), raw)
}
