package store

// Feed layout constants
const (
	// FeedVersion is the layout version reported by the Version scope
	FeedVersion = 2

	// HeaderSize is the size of the feed header, excluding the discriminator
	HeaderSize = 192

	// HeaderEnd is the offset of the first round slot
	HeaderEnd = 8 + HeaderSize

	// SlotSize is the size of one round slot
	SlotSize = 48

	// DescriptionSize is the fixed capacity of the description field
	DescriptionSize = 32

	// StoreSize is discriminator(8) + owner(32) + lowering access controller(32)
	StoreSize = 72
)

// Feed states
const (
	StateNormal  uint8 = 0
	StateFlagged uint8 = 1
)

// flaggingPrecision scales answer deviations before comparing them with the
// flagging threshold.
const flaggingPrecision = 100000

// Instruction kinds
const (
	KindInitializeStore       = "initialize_store"
	KindCreateFeed            = "create_feed"
	KindSubmit                = "submit"
	KindQuery                 = "query"
	KindSetValidatorConfig    = "set_validator_config"
	KindSetWriter             = "set_writer"
	KindTransferFeedOwnership = "transfer_feed_ownership"
	KindAcceptFeedOwnership   = "accept_feed_ownership"
	KindLowerFlag             = "lower_flag"
	KindCloseFeed             = "close_feed"
)

// FeedSize returns the account size of a feed holding slotCount rounds.
func FeedSize(slotCount int) int {
	return HeaderEnd + slotCount*SlotSize
}
