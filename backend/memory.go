package backend

import (
	"context"
	"fmt"
	"io"
	"sync"

	"google.golang.org/grpc/metadata"
)

// MemoryProvider is an in-process Provider used in tests and local
// development. It stores objects keyed by their "id" field and fans out
// created objects to registered cursors.
type MemoryProvider struct {
	mu      sync.Mutex
	objects map[string]Object
	deleted map[string]Object
	nextID  int

	cursors map[*memoryCursor]struct{}
}

// NewMemoryProvider creates an empty in-process provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		objects: make(map[string]Object),
		deleted: make(map[string]Object),
		cursors: make(map[*memoryCursor]struct{}),
	}
}

func (p *MemoryProvider) Count(_ context.Context, _ metadata.MD, filter Filter) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var count int64
	for _, obj := range p.objects {
		if matchesFilter(obj, filter) {
			count++
		}
	}
	return count, nil
}

func (p *MemoryProvider) Create(_ context.Context, _ metadata.MD, data Object) (Object, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	obj := cloneObject(data)
	id, ok := obj["id"].(string)
	if !ok || id == "" {
		p.nextID++
		id = fmt.Sprintf("%d", p.nextID)
		obj["id"] = id
	}
	p.objects[id] = obj

	for c := range p.cursors {
		c.push(cloneObject(obj))
	}

	return cloneObject(obj), nil
}

func (p *MemoryProvider) Find(_ context.Context, _ metadata.MD, filter Filter) ([]Object, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var items []Object
	for _, obj := range p.objects {
		if matchesFilter(obj, filter) {
			items = append(items, cloneObject(obj))
		}
	}
	return items, nil
}

func (p *MemoryProvider) FindByID(_ context.Context, _ metadata.MD, id string) (Object, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	obj, ok := p.objects[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneObject(obj), nil
}

func (p *MemoryProvider) Update(_ context.Context, _ metadata.MD, id string, data Object) (Object, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	obj, ok := p.objects[id]
	if !ok {
		return nil, ErrNotFound
	}
	for k, v := range data {
		if k == "id" {
			continue
		}
		obj[k] = v
	}
	return cloneObject(obj), nil
}

func (p *MemoryProvider) UpdateBulk(_ context.Context, _ metadata.MD, filter Filter, data Object) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var updated int64
	for _, obj := range p.objects {
		if !matchesFilter(obj, filter) {
			continue
		}
		for k, v := range data {
			if k == "id" {
				continue
			}
			obj[k] = v
		}
		updated++
	}
	return updated, nil
}

// Delete soft-deletes: the object can be brought back via Restore.
func (p *MemoryProvider) Delete(_ context.Context, _ metadata.MD, id string) (Object, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	obj, ok := p.objects[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(p.objects, id)
	p.deleted[id] = obj
	return cloneObject(obj), nil
}

func (p *MemoryProvider) Restore(_ context.Context, _ metadata.MD, id string) (Object, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	obj, ok := p.deleted[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(p.deleted, id)
	p.objects[id] = obj
	return cloneObject(obj), nil
}

// Destroy removes the object permanently, whether live or soft-deleted.
func (p *MemoryProvider) Destroy(_ context.Context, _ metadata.MD, id string) (Object, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if obj, ok := p.objects[id]; ok {
		delete(p.objects, id)
		return cloneObject(obj), nil
	}
	if obj, ok := p.deleted[id]; ok {
		delete(p.deleted, id)
		return cloneObject(obj), nil
	}
	return nil, ErrNotFound
}

// Cursor registers a stream receiving all objects created after
// registration. The cursor is torn down when ctx is cancelled or Close is
// called, whichever comes first.
func (p *MemoryProvider) Cursor(ctx context.Context, _ metadata.MD, _ Filter) (Cursor, error) {
	c := &memoryCursor{
		provider: p,
		items:    make(chan Object, 16),
		done:     make(chan struct{}),
	}

	p.mu.Lock()
	p.cursors[c] = struct{}{}
	p.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			_ = c.Close()
		case <-c.done:
		}
	}()

	return c, nil
}

// CursorCount reports the number of live cursors. Test helper.
func (p *MemoryProvider) CursorCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cursors)
}

type memoryCursor struct {
	provider *MemoryProvider
	items    chan Object

	closeOnce sync.Once
	done      chan struct{}
}

func (c *memoryCursor) push(obj Object) {
	select {
	case c.items <- obj:
	case <-c.done:
	default:
		// Slow consumer: drop rather than block unrelated streams.
	}
}

func (c *memoryCursor) Recv() (Object, error) {
	select {
	case obj := <-c.items:
		return obj, nil
	case <-c.done:
		return nil, io.EOF
	}
}

func (c *memoryCursor) Close() error {
	c.closeOnce.Do(func() {
		c.provider.mu.Lock()
		delete(c.provider.cursors, c)
		c.provider.mu.Unlock()
		close(c.done)
	})
	return nil
}

/* --------------------------------- Helpers -------------------------------- */

func matchesFilter(obj Object, filter Filter) bool {
	for field, want := range filter {
		got, ok := obj[field]
		if !ok {
			return false
		}
		if s, ok := got.(string); !ok || s != want {
			return false
		}
	}
	return true
}

func cloneObject(obj Object) Object {
	clone := make(Object, len(obj))
	for k, v := range obj {
		clone[k] = v
	}
	return clone
}
