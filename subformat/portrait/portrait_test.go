package portrait

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Frodo45127/rpfm-sub014/subformat"
)

func sample() *Settings {
	return &Settings{
		Version: 4,
		Entries: []Entry{
			{
				ID:   "wh3_main_art_set_cth_lord",
				Head: Camera{Z: 1.2, Y: 0.1, Yaw: 15, Pitch: -3, FOV: 12, SkeletonNode: "bn_head"},
				Body: &Camera{Z: 4, Y: 0.9, Yaw: 10, FOV: 25, SkeletonNode: "bn_spine"},
				Variants: []Variant{
					{
						Filename: "cth_lord_01",
						Diffuse:  "ui/portraits/portholes/cth_lord_01.png",
						Mask1:    "ui/portraits/portholes/cth_lord_01_mask1.png",
					},
				},
			},
			{
				ID:   "wh3_main_art_set_ksl_hero",
				Head: Camera{FOV: 10, SkeletonNode: "bn_head"},
			},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	in := sample()
	data, err := in.Encode()
	require.NoError(t, err)
	assert.Equal(t, []byte{4, 0, 0, 0, 2, 0, 0, 0}, data[:8])

	out, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	again, err := out.Encode()
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestLookups(t *testing.T) {
	t.Parallel()

	s := sample()
	e, ok := s.Entry("wh3_main_art_set_ksl_hero")
	require.True(t, ok)
	assert.Nil(t, e.Body)

	_, ok = s.Entry("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{
		"ui/portraits/portholes/cth_lord_01.png",
		"ui/portraits/portholes/cth_lord_01_mask1.png",
	}, s.Textures())
}

func TestBoundaries(t *testing.T) {
	t.Parallel()

	data, err := sample().Encode()
	require.NoError(t, err)

	_, err = Decode(data[:len(data)-1])
	require.ErrorIs(t, err, subformat.ErrCorrupt)

	_, err = Decode(append(data, 0))
	require.ErrorIs(t, err, subformat.ErrCorrupt)

	data[0] = 3
	_, err = Decode(data)
	var uv *subformat.UnsupportedVersionError
	require.ErrorAs(t, err, &uv)
	assert.Equal(t, uint32(3), uv.Version)
}

func TestVersion1(t *testing.T) {
	t.Parallel()

	in := &Settings{
		Version: 1,
		Entries: []Entry{
			{
				ID:   "art_set_emp_lord",
				Head: Camera{Distance: 2.5, Theta: 0.25, Phi: -0.5, FOV: 15},
				Variants: []Variant{
					{Filename: "emp_lord_01", Diffuse: "ui/portraits/emp_lord_01.png"},
				},
				Trailer: Trailer{Values: [2]float32{1, 0}},
			},
		},
	}
	data, err := in.Encode()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 0, 0, 1, 0, 0, 0}, data[:8])
	// id, four floats, one variant of five strings, then the trailer.
	assert.Len(t, data, 8+2+16+16+4+(2+11)+(2+28)+3*2+2+8+2)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0}, data[len(data)-6:])

	out, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	again, err := out.Encode()
	require.NoError(t, err)
	assert.Equal(t, data, again)

	_, err = Decode(data[:len(data)-1])
	require.ErrorIs(t, err, subformat.ErrCorrupt)
}

func TestVersion1RejectsBodyCamera(t *testing.T) {
	t.Parallel()

	s := sample()
	s.Version = 1
	_, err := s.Encode()
	require.ErrorIs(t, err, ErrBodyCamera)

	s.Entries[0].Body = nil
	_, err = s.Encode()
	require.NoError(t, err)
}
