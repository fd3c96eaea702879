package history

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/dukex/flowcanvas/pkg/log"
	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func workflowNamed(name string) *models.Workflow {
	w := models.NewWorkflow(name, "")
	w.Nodes = append(w.Nodes, &models.Node{ID: "node_1", Type: models.NodeTypeStart})

	return w
}

func newManager(source Source, opts Options) *Manager {
	opts.Logger = log.Discard()

	return New(source, opts)
}

func TestManager_RingBuffer(t *testing.T) {
	t.Parallel()

	m := newManager(nil, Options{})
	require.NoError(t, m.Init(workflowNamed("v0")))

	for i := 1; i <= 7; i++ {
		recorded, err := m.ForceUpdate(workflowNamed("v" + strconv.Itoa(i)))
		require.NoError(t, err)
		assert.True(t, recorded)
		assert.LessOrEqual(t, m.Len(), DefaultCapacity)
	}

	snapshots := m.Snapshots()
	require.Len(t, snapshots, DefaultCapacity)
	assert.Equal(t, "v7", snapshots[0].Workflow.Name)
	assert.Equal(t, "v3", snapshots[4].Workflow.Name)
}

func TestManager_SkipsUnchanged(t *testing.T) {
	t.Parallel()

	m := newManager(nil, Options{})
	require.NoError(t, m.Init(workflowNamed("same")))

	w := workflowNamed("same")
	w.Nodes[0].Context = []models.VariableDef{{Name: "transient"}}

	recorded, err := m.ForceUpdate(w)
	require.NoError(t, err)
	assert.False(t, recorded)
	assert.Equal(t, 1, m.Len())

	recorded, err = m.ForceUpdate(nil)
	require.NoError(t, err)
	assert.False(t, recorded)
}

func TestManager_Restore(t *testing.T) {
	t.Parallel()

	current := workflowNamed("draft")

	m := newManager(func() *models.Workflow { return current.Clone() }, Options{})
	require.NoError(t, m.Init(current))

	current.Name = "edited"
	recorded, err := m.Check()
	require.NoError(t, err)
	require.True(t, recorded)

	restored, err := m.Restore(1)
	require.NoError(t, err)
	assert.Equal(t, "draft", restored.Name)

	restored.Name = "mutated"
	assert.Equal(t, "draft", m.Snapshots()[1].Workflow.Name, "restore returns a copy")

	current = workflowNamed("draft")
	recorded, err = m.Check()
	require.NoError(t, err)
	assert.False(t, recorded, "restored state counts as last recorded")

	_, err = m.Restore(5)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = m.Restore(-1)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestManager_Timestamps(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	m := newManager(nil, Options{Now: func() time.Time { return now }})
	require.NoError(t, m.Init(workflowNamed("a")))

	now = now.Add(5 * time.Second)
	_, err := m.ForceUpdate(workflowNamed("b"))
	require.NoError(t, err)

	snapshots := m.Snapshots()
	assert.Equal(t, now, snapshots[0].Timestamp)
	assert.Equal(t, now.Add(-5*time.Second), snapshots[1].Timestamp)
}

func TestManager_Polling(t *testing.T) {
	t.Parallel()

	var (
		mu      sync.Mutex
		version int
	)

	source := func() *models.Workflow {
		mu.Lock()
		defer mu.Unlock()

		return workflowNamed("v" + strconv.Itoa(version))
	}

	m := newManager(source, Options{Interval: time.Second})
	require.NoError(t, m.Init(source()))
	require.NoError(t, m.Start())
	require.ErrorIs(t, m.Start(), ErrAlreadyStarted)

	mu.Lock()
	version = 1
	mu.Unlock()

	assert.Eventually(t, func() bool { return m.Len() == 2 }, 5*time.Second, 50*time.Millisecond)

	m.Stop()

	mu.Lock()
	version = 2
	mu.Unlock()

	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, 2, m.Len())
}
