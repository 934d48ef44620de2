package xrgrab

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type AssetId string

// VoxPlacement says where and how a loaded model enters the scene.
type VoxPlacement struct {
	Name      string
	Transform LocalTransformComponent
	// VoxelSize is the world size of one voxel; zero means DefaultVoxelSize.
	VoxelSize float32
	Grabbable bool
}

type voxLoadResult struct {
	id        AssetId
	path      string
	placement VoxPlacement
	file      *VoxFile
	err       error
	took      time.Duration
}

// AssetServer loads models off the frame loop. Finished loads wait under the
// mutex until assetLoadSystem spawns them on the next tick.
type AssetServer struct {
	mu       sync.Mutex
	wg       sync.WaitGroup
	voxFiles map[AssetId]*VoxFile
	inFlight map[AssetId]string
	finished []voxLoadResult
	roots    map[AssetId]EntityId
}

type AssetServerModule struct{}

func NewAssetServer() *AssetServer {
	return &AssetServer{
		voxFiles: make(map[AssetId]*VoxFile),
		inFlight: make(map[AssetId]string),
		roots:    make(map[AssetId]EntityId),
	}
}

func (AssetServerModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(NewAssetServer())
	app.UseSystem(
		System(assetLoadSystem).
			InStage(PreUpdate).
			RunAlways(),
	)
}

// LoadVoxModelAsync starts reading a .vox file in the background. The model is
// spawned under the scene root on the first tick after the read completes.
func (server *AssetServer) LoadVoxModelAsync(path string, placement VoxPlacement) AssetId {
	return server.loadAsync(path, placement, func() (*VoxFile, error) {
		return LoadVoxFile(path)
	})
}

func (server *AssetServer) loadAsync(path string, placement VoxPlacement, load func() (*VoxFile, error)) AssetId {
	id := makeAssetId()

	server.mu.Lock()
	server.inFlight[id] = path
	server.mu.Unlock()

	server.wg.Add(1)
	go func() {
		defer server.wg.Done()
		start := time.Now()
		file, err := load()

		server.mu.Lock()
		defer server.mu.Unlock()
		delete(server.inFlight, id)
		server.finished = append(server.finished, voxLoadResult{
			id:        id,
			path:      path,
			placement: placement,
			file:      file,
			err:       err,
			took:      time.Since(start),
		})
	}()
	return id
}

// Pending counts loads that are still reading or not yet spawned.
func (server *AssetServer) Pending() int {
	server.mu.Lock()
	defer server.mu.Unlock()
	return len(server.inFlight) + len(server.finished)
}

// Wait blocks until every background read has finished.
func (server *AssetServer) Wait() {
	server.wg.Wait()
}

func (server *AssetServer) VoxFile(id AssetId) (*VoxFile, bool) {
	server.mu.Lock()
	defer server.mu.Unlock()
	f, ok := server.voxFiles[id]
	return f, ok
}

// Root returns the scene node spawned for a finished load.
func (server *AssetServer) Root(id AssetId) (EntityId, bool) {
	server.mu.Lock()
	defer server.mu.Unlock()
	eid, ok := server.roots[id]
	return eid, ok
}

func (server *AssetServer) takeFinished() []voxLoadResult {
	server.mu.Lock()
	defer server.mu.Unlock()
	res := server.finished
	server.finished = nil
	return res
}

func (server *AssetServer) spawned(id AssetId, file *VoxFile, root EntityId) {
	server.mu.Lock()
	defer server.mu.Unlock()
	server.voxFiles[id] = file
	server.roots[id] = root
}

// assetLoadSystem spawns finished models and registers the grabbable ones.
// A failed load is logged and the scene goes on without it.
func assetLoadSystem(cmd *Commands, server *AssetServer, scene *SceneGraph, registry *GrabbableRegistry) {
	logger := cmd.Logger()
	for _, res := range server.takeFinished() {
		if res.err != nil {
			logger.Errorf("load model %s (%s): %v", res.path, res.id, res.err)
			continue
		}
		root := SpawnVoxModel(cmd, res.file, scene.Root, res.placement)
		if res.placement.Grabbable {
			registry.Register(root)
		}
		server.spawned(res.id, res.file, root)
		logger.Infof("loaded model %s as entity %d in %s", res.path, root, res.took)
	}
}

func makeAssetId() AssetId {
	return AssetId(uuid.NewString())
}
