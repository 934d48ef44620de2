package xrgrab

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	VOXMagicNumber = "VOX "
)

type Voxel struct {
	X, Y, Z, ColorIndex byte
}

type VoxModel struct {
	SizeX, SizeY, SizeZ uint32
	Voxels              []Voxel
}

type VoxPalette [256][4]byte // RGBA colors

type VoxNodeType int

const (
	VoxNodeTransform VoxNodeType = iota
	VoxNodeGroup
	VoxNodeShape
)

// VoxFrame is one keyframe of a transform node. Translation is in voxels,
// Rotation is MagicaVoxel's packed rotation byte.
type VoxFrame struct {
	LocalTrans [3]float32
	Rotation   byte
}

type VoxShapeModel struct {
	ModelID int
}

// VoxNode is a node of the nTRN/nGRP/nSHP scene graph. Node 0 is the root.
type VoxNode struct {
	ID          int
	Type        VoxNodeType
	Name        string
	Attributes  map[string]string
	ChildID     int
	ChildrenIDs []int
	Frames      []VoxFrame
	Models      []VoxShapeModel
}

type VoxFile struct {
	Version      int
	Models       []VoxModel
	Palette      VoxPalette
	VoxMaterials []VoxMaterial
	Nodes        map[int]VoxNode
}

type VoxMaterial struct {
	ID       int
	Type     int
	Weight   float32
	Property map[string]string
}

func LoadVoxFile(filename string) (*VoxFile, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	voxFile, err := ParseVox(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return voxFile, nil
}

// ParseVox reads a MagicaVoxel file. Unknown chunks are skipped.
func ParseVox(r io.Reader) (*VoxFile, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidVox, err)
	}
	if string(magic[:]) != VOXMagicNumber {
		return nil, ErrInvalidVox
	}

	var version int32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidVox, err)
	}

	voxFile := &VoxFile{
		Version: int(version),
		Palette: defaultPalette(),
		Nodes:   make(map[int]VoxNode),
	}

	// SIZE chunks open a new model; PACK may have preallocated them.
	sized := 0

	for {
		var chunkID [4]byte
		if _, err := io.ReadFull(r, chunkID[:]); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("%w: %w", ErrInvalidVox, err)
		}

		var chunkSize, childrenSize int32
		if err := binary.Read(r, binary.LittleEndian, &chunkSize); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidVox, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &childrenSize); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidVox, err)
		}
		if chunkSize < 0 {
			return nil, fmt.Errorf("%w: chunk %q has negative size", ErrInvalidVox, chunkID[:])
		}

		chunkData := make([]byte, chunkSize)
		if _, err := io.ReadFull(r, chunkData); err != nil {
			return nil, fmt.Errorf("%w: chunk %q: %w", ErrInvalidVox, chunkID[:], err)
		}

		id := string(chunkID[:])
		cr := &voxChunkReader{data: chunkData}

		switch id {
		case "MAIN":
			// MAIN only wraps the other chunks
			continue
		case "PACK":
			numModels := cr.int32()
			if cr.err == nil && numModels > 0 && len(voxFile.Models) == 0 {
				voxFile.Models = make([]VoxModel, numModels)
			}
		case "SIZE":
			sx, sy, sz := cr.uint32(), cr.uint32(), cr.uint32()
			if cr.err != nil {
				break
			}
			if sized >= len(voxFile.Models) {
				voxFile.Models = append(voxFile.Models, VoxModel{})
			}
			model := &voxFile.Models[sized]
			model.SizeX, model.SizeY, model.SizeZ = sx, sy, sz
			sized++
		case "XYZI":
			if sized == 0 {
				return nil, fmt.Errorf("%w: XYZI before SIZE", ErrInvalidVox)
			}
			model := &voxFile.Models[sized-1]
			numVoxels := cr.uint32()
			if cr.err == nil && int(numVoxels) > len(cr.data)/4 {
				return nil, fmt.Errorf("%w: XYZI chunk data overflow", ErrInvalidVox)
			}
			model.Voxels = make([]Voxel, 0, numVoxels)
			for i := uint32(0); i < numVoxels && cr.err == nil; i++ {
				b := cr.bytes(4)
				if cr.err != nil {
					break
				}
				model.Voxels = append(model.Voxels, Voxel{X: b[0], Y: b[1], Z: b[2], ColorIndex: b[3]})
			}
		case "RGBA":
			// Palette entry i of the chunk is colour index i+1.
			for i := 0; i < 255; i++ {
				offset := i * 4
				if offset+3 >= len(chunkData) {
					break
				}
				copy(voxFile.Palette[i+1][:], chunkData[offset:offset+4])
			}
		case "MATL":
			mat, err := parseMaterial(cr)
			if err != nil {
				return nil, err
			}
			voxFile.VoxMaterials = append(voxFile.VoxMaterials, mat)
		case "nTRN":
			node := VoxNode{Type: VoxNodeTransform}
			node.ID = int(cr.int32())
			node.Attributes = cr.dict()
			node.Name = node.Attributes["_name"]
			node.ChildID = int(cr.int32())
			cr.int32() // reserved
			cr.int32() // layer
			numFrames := cr.int32()
			for i := int32(0); i < numFrames && cr.err == nil; i++ {
				node.Frames = append(node.Frames, parseVoxFrame(cr.dict()))
			}
			voxFile.Nodes[node.ID] = node
		case "nGRP":
			node := VoxNode{Type: VoxNodeGroup}
			node.ID = int(cr.int32())
			node.Attributes = cr.dict()
			node.Name = node.Attributes["_name"]
			numChildren := cr.int32()
			for i := int32(0); i < numChildren && cr.err == nil; i++ {
				node.ChildrenIDs = append(node.ChildrenIDs, int(cr.int32()))
			}
			voxFile.Nodes[node.ID] = node
		case "nSHP":
			node := VoxNode{Type: VoxNodeShape}
			node.ID = int(cr.int32())
			node.Attributes = cr.dict()
			node.Name = node.Attributes["_name"]
			numModels := cr.int32()
			for i := int32(0); i < numModels && cr.err == nil; i++ {
				modelID := int(cr.int32())
				cr.dict() // model attributes (_f)
				node.Models = append(node.Models, VoxShapeModel{ModelID: modelID})
			}
			voxFile.Nodes[node.ID] = node
		}

		if cr.err != nil {
			return nil, fmt.Errorf("%w: chunk %s: %w", ErrInvalidVox, id, cr.err)
		}
	}

	for _, node := range voxFile.Nodes {
		for _, m := range node.Models {
			if m.ModelID < 0 || m.ModelID >= len(voxFile.Models) {
				return nil, fmt.Errorf("%w: shape node %d references model %d of %d", ErrInvalidVox, node.ID, m.ModelID, len(voxFile.Models))
			}
		}
	}

	return voxFile, nil
}

func parseMaterial(cr *voxChunkReader) (VoxMaterial, error) {
	mat := VoxMaterial{}
	mat.ID = int(cr.int32())
	mat.Property = cr.dict()
	if cr.err != nil {
		return mat, fmt.Errorf("%w: MATL: %w", ErrInvalidVox, cr.err)
	}

	mat.Type = voxMaterialType(mat.Property["_type"])
	if weight, ok := mat.Property["_weight"]; ok {
		w, err := strconv.ParseFloat(weight, 32)
		if err != nil {
			return mat, fmt.Errorf("%w: MATL %d _weight %q: %w", ErrInvalidVox, mat.ID, weight, err)
		}
		mat.Weight = float32(w)
	}
	return mat, nil
}

func voxMaterialType(t string) int {
	switch t {
	case "_metal":
		return 1
	case "_glass":
		return 2
	case "_emit":
		return 3
	default:
		return 0
	}
}

func parseVoxFrame(attrs map[string]string) VoxFrame {
	frame := VoxFrame{Rotation: 0x04}
	if r, ok := attrs["_r"]; ok {
		if v, err := strconv.ParseUint(r, 10, 8); err == nil {
			frame.Rotation = byte(v)
		}
	}
	if t, ok := attrs["_t"]; ok {
		fields := strings.Fields(t)
		for i := 0; i < len(fields) && i < 3; i++ {
			if v, err := strconv.ParseFloat(fields[i], 32); err == nil {
				frame.LocalTrans[i] = float32(v)
			}
		}
	}
	return frame
}

// voxChunkReader reads little-endian fields from a chunk body. The first
// out-of-bounds read sticks in err and later reads return zero values.
type voxChunkReader struct {
	data []byte
	err  error
}

func (cr *voxChunkReader) bytes(n int) []byte {
	if cr.err != nil {
		return nil
	}
	if n < 0 || n > len(cr.data) {
		cr.err = fmt.Errorf("need %d bytes, %d left", n, len(cr.data))
		return nil
	}
	b := cr.data[:n]
	cr.data = cr.data[n:]
	return b
}

func (cr *voxChunkReader) uint32() uint32 {
	b := cr.bytes(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (cr *voxChunkReader) int32() int32 {
	return int32(cr.uint32())
}

func (cr *voxChunkReader) str() string {
	n := cr.int32()
	return string(cr.bytes(int(n)))
}

func (cr *voxChunkReader) dict() map[string]string {
	n := cr.int32()
	res := make(map[string]string)
	for i := int32(0); i < n && cr.err == nil; i++ {
		key := cr.str()
		res[key] = cr.str()
	}
	return res
}

func defaultPalette() VoxPalette {
	var palette VoxPalette
	for i := range palette {
		palette[i] = [4]uint8{255, 255, 255, 255} // white as fallback
	}
	return palette
}

// DominantColor is the most used palette colour of the model.
func (f *VoxFile) DominantColor(model VoxModel) Color {
	var counts [256]int
	best := -1
	for _, v := range model.Voxels {
		counts[v.ColorIndex]++
		if best < 0 || counts[v.ColorIndex] > counts[best] {
			best = int(v.ColorIndex)
		}
	}
	if best < 0 {
		return ColorWhite
	}
	rgba := f.Palette[best]
	return Color(uint32(rgba[0])<<16 | uint32(rgba[1])<<8 | uint32(rgba[2]))
}

// Size returns the model's extent in engine axes (Y up), in voxels.
func (m VoxModel) Size() mgl32.Vec3 {
	return mgl32.Vec3{float32(m.SizeX), float32(m.SizeZ), float32(m.SizeY)}
}

// decodeVoxRotation turns MagicaVoxel's packed rotation byte into an engine
// rotation and a per-axis sign for the reflection cases.
func decodeVoxRotation(r byte) (mgl32.Quat, mgl32.Vec3) {
	nz1 := int(r & 3)
	nz2 := int((r >> 2) & 3)
	flip := int((r >> 4) & 7)

	si := mgl32.Vec3{1, 1, 1}
	sf := mgl32.Vec3{-1, -1, -1}

	const sqrt22 = float32(0.70710678)

	q := func(x, y, z, w float32) mgl32.Quat {
		return mgl32.Quat{W: w, V: mgl32.Vec3{x, y, z}}
	}

	var quats [4]mgl32.Quat
	var mapping [8]int
	var scales [8]mgl32.Vec3

	scalesStandard := [8]mgl32.Vec3{si, sf, sf, si, sf, si, si, sf}
	scalesInverted := [8]mgl32.Vec3{sf, si, si, sf, si, sf, sf, si}

	switch {
	case nz1 == 0 && nz2 == 1:
		quats = [4]mgl32.Quat{q(0, 0, 0, 1), q(0, 0, 1, 0), q(0, 1, 0, 0), q(1, 0, 0, 0)}
		mapping = [8]int{0, 3, 2, 1, 1, 2, 3, 0}
		scales = scalesStandard
	case nz1 == 0 && nz2 == 2:
		quats = [4]mgl32.Quat{q(0, sqrt22, sqrt22, 0), q(sqrt22, 0, 0, sqrt22), q(sqrt22, 0, 0, -sqrt22), q(0, sqrt22, -sqrt22, 0)}
		mapping = [8]int{3, 0, 1, 2, 2, 1, 0, 3}
		scales = scalesInverted
	case nz1 == 1 && nz2 == 2:
		quats = [4]mgl32.Quat{q(0.5, 0.5, 0.5, -0.5), q(0.5, -0.5, 0.5, 0.5), q(0.5, -0.5, -0.5, -0.5), q(0.5, 0.5, -0.5, 0.5)}
		mapping = [8]int{0, 3, 2, 1, 1, 2, 3, 0}
		scales = scalesStandard
	case nz1 == 1 && nz2 == 0:
		quats = [4]mgl32.Quat{q(0, 0, sqrt22, sqrt22), q(0, 0, sqrt22, -sqrt22), q(sqrt22, sqrt22, 0, 0), q(sqrt22, -sqrt22, 0, 0)}
		mapping = [8]int{3, 0, 1, 2, 2, 1, 0, 3}
		scales = scalesInverted
	case nz1 == 2 && nz2 == 0:
		quats = [4]mgl32.Quat{q(0.5, 0.5, 0.5, 0.5), q(0.5, -0.5, -0.5, 0.5), q(0.5, 0.5, -0.5, -0.5), q(0.5, -0.5, 0.5, -0.5)}
		mapping = [8]int{0, 3, 2, 1, 1, 2, 3, 0}
		scales = scalesStandard
	case nz1 == 2 && nz2 == 1:
		quats = [4]mgl32.Quat{q(0, sqrt22, 0, -sqrt22), q(sqrt22, 0, sqrt22, 0), q(0, sqrt22, 0, sqrt22), q(sqrt22, 0, -sqrt22, 0)}
		mapping = [8]int{3, 0, 1, 2, 2, 1, 0, 3}
		scales = scalesInverted
	default:
		return mgl32.QuatIdent(), si
	}

	// Z-up to Y-up swaps the Y and Z axes. The swap is a reflection, so the
	// rotation axis is swapped and the angle changes sign.
	rotVox := quats[mapping[flip]]
	scaleVox := scales[flip]

	rot := mgl32.Quat{
		W: rotVox.W,
		V: mgl32.Vec3{-rotVox.V.X(), -rotVox.V.Z(), -rotVox.V.Y()},
	}
	if rot.W < 0 {
		rot = rot.Scale(-1)
	}
	return rot.Normalize(), mgl32.Vec3{scaleVox.X(), scaleVox.Z(), scaleVox.Y()}
}

// voxToEngine swaps a MagicaVoxel (Z up) vector into engine axes (Y up).
func voxToEngine(v [3]float32) mgl32.Vec3 {
	return mgl32.Vec3{v[0], v[2], v[1]}
}

// ParseVoxBytes is ParseVox over an in-memory file.
func ParseVoxBytes(data []byte) (*VoxFile, error) {
	return ParseVox(bytes.NewReader(data))
}
