package capability

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(New("text-processing", "Text Processing", "root for text capabilities")))
	require.NoError(t, r.Register(NewChild("word-count", "Word Count", "text-processing", "")))

	cap, ok := r.Get("word-count")
	require.True(t, ok)
	assert.Equal(t, "text-processing", cap.ParentID)
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_Register_Duplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(New("text-processing", "Text Processing", "")))

	err := r.Register(New("text-processing", "Other", ""))
	assert.ErrorIs(t, err, ErrDuplicateCapability)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_Register_UnknownParent(t *testing.T) {
	r := NewRegistry()

	err := r.Register(NewChild("word-count", "Word Count", "text-processing", ""))
	assert.ErrorIs(t, err, ErrUnknownParent)

	_, ok := r.Get("word-count")
	assert.False(t, ok, "failed registration must leave no entry")
}

func TestRegistry_Register_EmptyID(t *testing.T) {
	r := NewRegistry()
	assert.ErrorIs(t, r.Register(Capability{Name: "nameless"}), ErrInvalidCapability)
}

func TestRegistry_Children(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(New("text-processing", "Text Processing", "")))
	require.NoError(t, r.Register(NewChild("word-count", "Word Count", "text-processing", "")))
	require.NoError(t, r.Register(NewChild("uppercase", "Uppercase", "text-processing", "")))

	children := r.Children("text-processing")
	require.Len(t, children, 2)
	assert.Equal(t, "word-count", children[0].ID)
	assert.Equal(t, "uppercase", children[1].ID)

	assert.Empty(t, r.Children("word-count"))
	assert.Empty(t, r.Children("unknown"))
}

func TestRegistry_IsDescendant(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(New("processing", "Processing", "")))
	require.NoError(t, r.Register(NewChild("text-processing", "Text Processing", "processing", "")))
	require.NoError(t, r.Register(NewChild("word-count", "Word Count", "text-processing", "")))

	assert.True(t, r.IsDescendant("word-count", "text-processing"))
	assert.True(t, r.IsDescendant("word-count", "processing"))
	assert.False(t, r.IsDescendant("text-processing", "word-count"))
	assert.False(t, r.IsDescendant("processing", "processing"), "a capability is not its own descendant")
	assert.False(t, r.IsDescendant("unknown", "processing"))
}

func TestRegistry_ConcurrentRegister(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(New("root", "Root", "")))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = r.Register(NewChild(fmt.Sprintf("cap-%d", i), "Cap", "root", ""))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 51, r.Len())
	assert.Len(t, r.Children("root"), 50)
}
