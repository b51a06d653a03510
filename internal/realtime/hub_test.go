package realtime

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	id   string
	full bool

	mu   sync.Mutex
	msgs []string
}

func newFakeClient(id string) *fakeClient { return &fakeClient{id: id} }

func (c *fakeClient) ID() string { return c.id }

func (c *fakeClient) Send(message []byte) bool {
	if c.full {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, string(message))
	return true
}

func (c *fakeClient) Close() {}

func (c *fakeClient) received() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.msgs...)
}

func TestHub_ScopedDelivery(t *testing.T) {
	h := NewHub()
	a, b, other := newFakeClient("a"), newFakeClient("b"), newFakeClient("other")
	h.Join(a, "p1")
	h.Join(b, "p1")
	h.Join(other, "p2")

	require.Equal(t, 2, h.Publish("p1", []byte("m1")))

	require.Equal(t, []string{"m1"}, a.received())
	require.Equal(t, []string{"m1"}, b.received())
	require.Empty(t, other.received())
}

func TestHub_JoinIsIdempotent(t *testing.T) {
	h := NewHub()
	a := newFakeClient("a")
	require.True(t, h.Join(a, "p1"))
	require.False(t, h.Join(a, "p1"))
	require.Equal(t, 1, h.GroupSize("p1"))

	h.Publish("p1", []byte("once"))
	require.Equal(t, []string{"once"}, a.received())
}

func TestHub_LeaveRemovesEveryGroup(t *testing.T) {
	h := NewHub()
	a, b := newFakeClient("a"), newFakeClient("b")
	h.Join(a, "p1")
	h.Join(a, "p2")
	h.Join(b, "p2")

	require.Equal(t, 2, h.Leave(a))
	require.Equal(t, 0, h.GroupSize("p1"))
	require.Equal(t, 1, h.GroupSize("p2"))
	require.Equal(t, 0, h.Leave(a))

	h.Publish("p2", []byte("after"))
	require.Empty(t, a.received())
	require.Equal(t, []string{"after"}, b.received())
}

func TestHub_LeaveProject(t *testing.T) {
	h := NewHub()
	a := newFakeClient("a")
	h.Join(a, "p1")
	h.Join(a, "p2")
	h.LeaveProject(a, "p1")

	h.Publish("p1", []byte("x"))
	h.Publish("p2", []byte("y"))
	require.Equal(t, []string{"y"}, a.received())
}

func TestHub_DroppedSendIsNotCounted(t *testing.T) {
	h := NewHub()
	slow := &fakeClient{id: "slow", full: true}
	ok := newFakeClient("ok")
	h.Join(slow, "p1")
	h.Join(ok, "p1")

	require.Equal(t, 1, h.Publish("p1", []byte("m")))
	require.Equal(t, 2, h.GroupSize("p1"))
}

func TestHub_PublishOrderPerSubscriber(t *testing.T) {
	h := NewHub()
	a, b := newFakeClient("a"), newFakeClient("b")
	h.Join(a, "p1")
	h.Join(b, "p1")

	want := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		msg := fmt.Sprintf("m%d", i)
		want = append(want, msg)
		h.Publish("p1", []byte(msg))
	}
	require.Equal(t, want, a.received())
	require.Equal(t, want, b.received())
}

func TestHub_ConcurrentJoinLeavePublish(t *testing.T) {
	h := NewHub()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := newFakeClient(fmt.Sprintf("c%d", i))
			for r := 0; r < 50; r++ {
				h.Join(c, "p1")
				h.Publish("p1", []byte("x"))
				h.Leave(c)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 0, h.GroupSize("p1"))
}
