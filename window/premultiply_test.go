package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPremultiplyPartialAlpha(t *testing.T) {
	dst := make([]byte, 4)
	PremultiplyToBGRA(dst, []byte{200, 100, 50, 128})
	assert.Equal(t, []byte{25, 50, 100, 128}, dst)
}

func TestPremultiplyZeroAlpha(t *testing.T) {
	dst := []byte{9, 9, 9, 9}
	PremultiplyToBGRA(dst, []byte{255, 17, 3, 0})
	assert.Equal(t, []byte{0, 0, 0, 0}, dst)
}

func TestPremultiplyOpaqueKeepsColor(t *testing.T) {
	src := []byte{1, 127, 254, 255, 200, 100, 50, 255}
	dst := make([]byte, len(src))
	PremultiplyToBGRA(dst, src)
	for i := 0; i < len(src); i += 4 {
		assert.Equal(t, src[i], dst[i+2], "red")
		assert.Equal(t, src[i+1], dst[i+1], "green")
		assert.Equal(t, src[i+2], dst[i], "blue")
		assert.Equal(t, byte(255), dst[i+3])
	}
}

func TestPremultiplyShortcutsMatchFormula(t *testing.T) {
	for c := 0; c < 256; c++ {
		assert.Equal(t, uint8(c), premul(uint8(c), 255))
		assert.Equal(t, uint8(0), premul(uint8(c), 0))
	}
}

func TestPremultiplyInPlace(t *testing.T) {
	buf := []byte{200, 100, 50, 128, 10, 20, 30, 255}
	PremultiplyToBGRA(buf, buf)
	assert.Equal(t, []byte{25, 50, 100, 128, 30, 20, 10, 255}, buf)
}

func TestPremultiplyIgnoresPartialPixel(t *testing.T) {
	dst := []byte{7, 7, 7, 7, 7, 7}
	PremultiplyToBGRA(dst, []byte{1, 2, 3, 255, 4, 5})
	assert.Equal(t, []byte{3, 2, 1, 255, 7, 7}, dst)
}
