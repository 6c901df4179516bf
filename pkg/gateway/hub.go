package gateway

import (
	"sync"

	"github.com/tripcanvas/tripcanvas/pkg/host"
	"github.com/tripcanvas/tripcanvas/pkg/logger"
)

// hub tracks every widget currently connected over websocket so completed
// tool calls can be pushed to them as set_globals events.
type hub struct {
	mu    sync.Mutex
	pages map[*host.Page]struct{}
}

func newHub() *hub {
	return &hub{pages: make(map[*host.Page]struct{})}
}

func (h *hub) add(p *host.Page) {
	h.mu.Lock()
	h.pages[p] = struct{}{}
	h.mu.Unlock()
	logger.InfoCF("gateway", "Widget connected", map[string]interface{}{
		"connected": h.count(),
	})
}

func (h *hub) remove(p *host.Page) {
	h.mu.Lock()
	delete(h.pages, p)
	h.mu.Unlock()
	p.Close()
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pages)
}

// broadcast pushes the event to every connected widget, dropping pages whose
// socket has died.
func (h *hub) broadcast(ev host.SetGlobalsEvent) {
	h.mu.Lock()
	pages := make([]*host.Page, 0, len(h.pages))
	for p := range h.pages {
		pages = append(pages, p)
	}
	h.mu.Unlock()

	for _, p := range pages {
		if err := p.SendSetGlobals(ev); err != nil {
			logger.WarnCF("gateway", "Dropping dead widget connection", map[string]interface{}{
				"error": err.Error(),
			})
			h.remove(p)
		}
	}
}
