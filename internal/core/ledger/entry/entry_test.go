package entry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiscriminatorsAreDistinct(t *testing.T) {
	seen := make(map[[DiscriminatorSize]byte]Type)
	for _, typ := range known {
		d := typ.Discriminator()
		prev, dup := seen[d]
		assert.False(t, dup, "%s collides with %s", typ, prev)
		seen[d] = typ
	}
}

func TestDetect(t *testing.T) {
	d := TypeTransmissions.Discriminator()
	data := append(d[:], 1, 2, 3)

	assert.Equal(t, TypeTransmissions, Detect(data))
	assert.True(t, TypeTransmissions.Matches(data))
	assert.False(t, TypeState.Matches(data))
	assert.True(t, TypeAny.Matches(nil))
	assert.Equal(t, TypeAny, Detect([]byte{1, 2}))
}
