package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

type Client struct {
	Conn *websocket.Conn
	Send chan []byte
}

type Hub struct {
	Clients       map[string]map[*websocket.Conn]*Client // Theo từng thesisID
	GlobalClients map[*websocket.Conn]*Client            // Dành cho broadcast chung
	Mutex         sync.RWMutex
}

var H = Hub{
	Clients:       make(map[string]map[*websocket.Conn]*Client),
	GlobalClients: make(map[*websocket.Conn]*Client),
}

// Struct gửi trạng thái của 1 luận văn (duyệt hoặc phân tích AI)
type ThesisStatusUpdate struct {
	ThesisID       string `json:"thesis_id"`
	Status         string `json:"status,omitempty"`          // pending | approved | rejected
	AnalysisStatus string `json:"analysis_status,omitempty"` // pending | complete | failed
}

// Register theo thesisID riêng
func (h *Hub) Register(thesisID string, conn *websocket.Conn) {
	h.Mutex.Lock()
	defer h.Mutex.Unlock()

	if _, ok := h.Clients[thesisID]; !ok {
		h.Clients[thesisID] = make(map[*websocket.Conn]*Client)
	}

	client := &Client{
		Conn: conn,
		Send: make(chan []byte, 256),
	}

	h.Clients[thesisID][conn] = client

	go h.readPump(thesisID, conn)
	go h.writePump(thesisID, client)
}

// Register global cho trang danh sách
func (h *Hub) RegisterGlobal(conn *websocket.Conn) {
	h.Mutex.Lock()
	defer h.Mutex.Unlock()

	client := &Client{
		Conn: conn,
		Send: make(chan []byte, 256),
	}

	h.GlobalClients[conn] = client

	go h.readGlobalPump(conn)
	go h.writeGlobalPump(client)
}

// Broadcast theo thesisID
func (h *Hub) Broadcast(thesisID string, data []byte) {
	h.Mutex.RLock()
	defer h.Mutex.RUnlock()

	if clients, ok := h.Clients[thesisID]; ok {
		for _, client := range clients {
			select {
			case client.Send <- data:
			default:
			}
		}
	}
}

// Broadcast toàn bộ global clients (danh sách)
func (h *Hub) BroadcastGlobal(data []byte) {
	h.Mutex.RLock()
	defer h.Mutex.RUnlock()

	for _, client := range h.GlobalClients {
		select {
		case client.Send <- data:
		default:
		}
	}
}

// SendAnalysisUpdate gửi trạng thái phân tích AI cho client đang theo dõi 1 luận văn
func SendAnalysisUpdate(thesisID, analysisStatus string) {
	update := ThesisStatusUpdate{
		ThesisID:       thesisID,
		AnalysisStatus: analysisStatus,
	}
	data, err := json.Marshal(update)
	if err != nil {
		log.Println("JSON marshal error:", err)
		return
	}
	H.Broadcast(thesisID, data)
	BroadcastThesisListChanged()
}

// SendReviewUpdate gửi trạng thái duyệt (approved/rejected)
func SendReviewUpdate(thesisID, status string) {
	update := ThesisStatusUpdate{
		ThesisID: thesisID,
		Status:   status,
	}
	data, err := json.Marshal(update)
	if err != nil {
		log.Println("JSON marshal error:", err)
		return
	}
	H.Broadcast(thesisID, data)
	BroadcastThesisListChanged()
}

// BroadcastThesisListChanged báo các trang danh sách reload
func BroadcastThesisListChanged() {
	data := []byte(`{"type": "thesis_list_changed"}`)
	H.BroadcastGlobal(data)
}

// Unregister client theo thesisID
func (h *Hub) Unregister(thesisID string, conn *websocket.Conn) {
	h.Mutex.Lock()
	defer h.Mutex.Unlock()

	if clients, ok := h.Clients[thesisID]; ok {
		if client, ok := clients[conn]; ok {
			close(client.Send)
			delete(clients, conn)
		}
		if len(clients) == 0 {
			delete(h.Clients, thesisID)
		}
	}
}

// Unregister global client
func (h *Hub) UnregisterGlobal(conn *websocket.Conn) {
	h.Mutex.Lock()
	defer h.Mutex.Unlock()

	if client, ok := h.GlobalClients[conn]; ok {
		close(client.Send)
		delete(h.GlobalClients, conn)
	}
}

// GetStats trả số client đang kết nối (cho health check)
func (h *Hub) GetStats() map[string]int {
	h.Mutex.RLock()
	defer h.Mutex.RUnlock()

	perThesis := 0
	for _, clients := range h.Clients {
		perThesis += len(clients)
	}
	return map[string]int{
		"thesis_clients": perThesis,
		"global_clients": len(h.GlobalClients),
	}
}

// Read pump riêng theo thesisID
func (h *Hub) readPump(thesisID string, conn *websocket.Conn) {
	defer func() {
		h.Unregister(thesisID, conn)
		conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (h *Hub) writePump(thesisID string, client *Client) {
	for data := range client.Send {
		if err := client.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
			break
		}
	}
}

func (h *Hub) readGlobalPump(conn *websocket.Conn) {
	defer func() {
		h.UnregisterGlobal(conn)
		conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (h *Hub) writeGlobalPump(client *Client) {
	for data := range client.Send {
		if err := client.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
			break
		}
	}
}
