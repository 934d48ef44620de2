package xrgrab

import (
	"bytes"
	"encoding/binary"
	"strconv"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// voxBuilder writes MagicaVoxel chunks for tests.
type voxBuilder struct {
	chunks bytes.Buffer
}

type voxBody struct {
	bytes.Buffer
}

func (b *voxBody) i32(v int32) *voxBody {
	_ = binary.Write(b, binary.LittleEndian, v)
	return b
}

func (b *voxBody) str(s string) *voxBody {
	b.i32(int32(len(s)))
	b.WriteString(s)
	return b
}

func (b *voxBody) dict(kv ...string) *voxBody {
	b.i32(int32(len(kv) / 2))
	for _, s := range kv {
		b.str(s)
	}
	return b
}

func (vb *voxBuilder) chunk(id string, body *voxBody) *voxBuilder {
	vb.chunks.WriteString(id)
	_ = binary.Write(&vb.chunks, binary.LittleEndian, int32(body.Len()))
	_ = binary.Write(&vb.chunks, binary.LittleEndian, int32(0))
	vb.chunks.Write(body.Bytes())
	return vb
}

func (vb *voxBuilder) model(sx, sy, sz int32, voxels ...Voxel) *voxBuilder {
	size := (&voxBody{}).i32(sx).i32(sy).i32(sz)
	vb.chunk("SIZE", size)
	xyzi := (&voxBody{}).i32(int32(len(voxels)))
	for _, v := range voxels {
		xyzi.Write([]byte{v.X, v.Y, v.Z, v.ColorIndex})
	}
	return vb.chunk("XYZI", xyzi)
}

func (vb *voxBuilder) transform(id, child int32, name string, trans string, rot byte) *voxBuilder {
	body := (&voxBody{}).i32(id)
	if name != "" {
		body.dict("_name", name)
	} else {
		body.dict()
	}
	body.i32(child).i32(-1).i32(0).i32(1)
	frame := []string{"_r", strconv.Itoa(int(rot))}
	if trans != "" {
		frame = append(frame, "_t", trans)
	}
	body.dict(frame...)
	return vb.chunk("nTRN", body)
}

func (vb *voxBuilder) group(id int32, children ...int32) *voxBuilder {
	body := (&voxBody{}).i32(id).dict().i32(int32(len(children)))
	for _, c := range children {
		body.i32(c)
	}
	return vb.chunk("nGRP", body)
}

func (vb *voxBuilder) shape(id int32, models ...int32) *voxBuilder {
	body := (&voxBody{}).i32(id).dict().i32(int32(len(models)))
	for _, m := range models {
		body.i32(m).dict()
	}
	return vb.chunk("nSHP", body)
}

func (vb *voxBuilder) bytes() []byte {
	var out bytes.Buffer
	out.WriteString(VOXMagicNumber)
	_ = binary.Write(&out, binary.LittleEndian, int32(150))
	out.WriteString("MAIN")
	_ = binary.Write(&out, binary.LittleEndian, int32(0))
	_ = binary.Write(&out, binary.LittleEndian, int32(vb.chunks.Len()))
	out.Write(vb.chunks.Bytes())
	return out.Bytes()
}

// twoPartVox is a scene with a group holding two shapes side by side.
func twoPartVox() []byte {
	var vb voxBuilder
	vb.model(2, 2, 2, Voxel{0, 0, 0, 1}, Voxel{1, 0, 0, 1}, Voxel{1, 1, 0, 2})
	vb.model(4, 2, 6, Voxel{0, 0, 0, 2})

	palette := &voxBody{}
	for i := 0; i < 256; i++ {
		switch i {
		case 0:
			palette.Write([]byte{255, 0, 0, 255})
		case 1:
			palette.Write([]byte{0, 0, 255, 255})
		default:
			palette.Write([]byte{10, 10, 10, 255})
		}
	}
	vb.chunk("RGBA", palette)

	vb.transform(0, 1, "", "", 0x04)
	vb.group(1, 2, 4)
	vb.transform(2, 3, "left", "-10 0 5", 0x04)
	vb.shape(3, 0)
	vb.transform(4, 5, "right", "10 0 5", 0x04)
	vb.shape(5, 1)

	vb.chunk("MATL", (&voxBody{}).i32(1).dict("_type", "_metal", "_weight", "0.5"))
	return vb.bytes()
}

func TestParseVox_SceneGraph(t *testing.T) {
	file, err := ParseVoxBytes(twoPartVox())
	require.NoError(t, err)

	assert.Equal(t, 150, file.Version)
	require.Len(t, file.Models, 2)
	assert.Equal(t, uint32(4), file.Models[1].SizeX)
	assert.Equal(t, uint32(6), file.Models[1].SizeZ)
	assert.Len(t, file.Models[0].Voxels, 3)
	assert.Equal(t, Voxel{1, 1, 0, 2}, file.Models[0].Voxels[2])

	require.Len(t, file.Nodes, 6)
	assert.Equal(t, VoxNodeGroup, file.Nodes[1].Type)
	assert.Equal(t, []int{2, 4}, file.Nodes[1].ChildrenIDs)
	left := file.Nodes[2]
	assert.Equal(t, "left", left.Name)
	assert.Equal(t, 3, left.ChildID)
	require.Len(t, left.Frames, 1)
	assert.Equal(t, [3]float32{-10, 0, 5}, left.Frames[0].LocalTrans)
	assert.Equal(t, []VoxShapeModel{{ModelID: 1}}, file.Nodes[5].Models)

	require.Len(t, file.VoxMaterials, 1)
	mat := file.VoxMaterials[0]
	assert.Equal(t, 1, mat.ID)
	assert.Equal(t, 1, mat.Type)
	assert.InDelta(t, 0.5, mat.Weight, 1e-6)

	// RGBA entry i is colour index i+1.
	assert.Equal(t, [4]byte{255, 0, 0, 255}, file.Palette[1])
	assert.Equal(t, Color(0xff0000), file.DominantColor(file.Models[0]))
	assert.Equal(t, Color(0x0000ff), file.DominantColor(file.Models[1]))
	assert.Equal(t, ColorWhite, file.DominantColor(VoxModel{}))

	assertVecNear(t, mgl32.Vec3{4, 6, 2}, file.Models[1].Size())
}

func TestParseVox_PlainModel(t *testing.T) {
	var vb voxBuilder
	vb.model(1, 1, 1, Voxel{0, 0, 0, 7})
	file, err := ParseVoxBytes(vb.bytes())
	require.NoError(t, err)
	require.Len(t, file.Models, 1)
	assert.Empty(t, file.Nodes)
	assert.Equal(t, [4]byte{255, 255, 255, 255}, file.Palette[7], "missing RGBA keeps the fallback palette")
}

func TestParseVox_Errors(t *testing.T) {
	_, err := ParseVoxBytes([]byte("NOPE\x96\x00\x00\x00"))
	assert.ErrorIs(t, err, ErrInvalidVox)

	_, err = ParseVoxBytes([]byte("VO"))
	assert.ErrorIs(t, err, ErrInvalidVox)

	good := twoPartVox()
	_, err = ParseVoxBytes(good[:len(good)-7])
	assert.ErrorIs(t, err, ErrInvalidVox, "truncated chunk")

	var orphan voxBuilder
	orphan.chunk("XYZI", (&voxBody{}).i32(0))
	_, err = ParseVoxBytes(orphan.bytes())
	assert.ErrorIs(t, err, ErrInvalidVox, "XYZI before SIZE")

	var badRef voxBuilder
	badRef.model(1, 1, 1).transform(0, 1, "", "", 0x04).shape(1, 3)
	_, err = ParseVoxBytes(badRef.bytes())
	assert.ErrorIs(t, err, ErrInvalidVox, "shape points past the models")

	var shortNode voxBuilder
	shortNode.chunk("nGRP", (&voxBody{}).i32(1).dict().i32(5))
	_, err = ParseVoxBytes(shortNode.bytes())
	assert.ErrorIs(t, err, ErrInvalidVox, "group lists more children than it holds")

	_, err = LoadVoxFile("testdata/does-not-exist.vox")
	assert.Error(t, err)
}

func TestDecodeVoxRotation(t *testing.T) {
	rot, scale := decodeVoxRotation(0x04)
	assertQuatNear(t, mgl32.QuatIdent(), rot)
	assertVecNear(t, mgl32.Vec3{1, 1, 1}, scale)

	// Invalid packings fall back to identity.
	rot, _ = decodeVoxRotation(0x00)
	assertQuatNear(t, mgl32.QuatIdent(), rot)

	for r := 0; r < 128; r++ {
		rot, scale := decodeVoxRotation(byte(r))
		assert.InDelta(t, 1, rot.Len(), 1e-4, "rotation %#x", r)
		for i := 0; i < 3; i++ {
			assert.InDelta(t, 1, abs32(scale[i]), 1e-6, "rotation %#x", r)
		}
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func TestVoxToEngine(t *testing.T) {
	assertVecNear(t, mgl32.Vec3{1, 3, 2}, voxToEngine([3]float32{1, 2, 3}))
}
