package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Yashi-Piparsaniya/buildathon/internal/config"
	"github.com/Yashi-Piparsaniya/buildathon/internal/database"
	"github.com/Yashi-Piparsaniya/buildathon/internal/handlers"
	"github.com/Yashi-Piparsaniya/buildathon/internal/services"
)

var (
	httpServer *http.Server

	wsClients = &WebSocketClients{
		clients: make(map[string]*WebSocketClient),
	}
)

type WebSocketClient struct {
	conn     *websocket.Conn
	clientID string
	send     chan interface{}
	mu       sync.Mutex
}

type WebSocketClients struct {
	mu      sync.RWMutex
	clients map[string]*WebSocketClient
	count   int32
}

type WebSocketMessage struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	ClientID  string      `json:"client_id,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

func main() {
	portFlag := flag.String("port", "", "HTTP port (overrides PORT env)")
	inferenceFlag := flag.String("inference-url", "", "Inference service URL (overrides INFERENCE_URL env)")
	flag.Parse()

	cfg := config.LoadConfig()
	if *portFlag != "" {
		cfg.HTTPPort = *portFlag
	}
	if *inferenceFlag != "" {
		cfg.InferenceURL = *inferenceFlag
	}

	log.Println("Starting...")
	log.Printf("HTTP port: %s", cfg.HTTPPort)
	log.Printf("Inference service: %s", cfg.InferenceURL)
	log.Printf("Enviroment: %s", cfg.Environment)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	// Проба инференс-сервиса; флаг modelLoaded выставляется один раз,
	// дальше только читается
	classifier := services.NewHTTPClassifier(cfg.InferenceURL)
	probeCtx, cancelProbe := context.WithTimeout(context.Background(), cfg.ProbeTimeout)
	modelLoaded := false
	if err := classifier.Probe(probeCtx); err != nil {
		log.Printf("Inference service unavailable: %v", err)
		log.Println("Continuing with fallback classifier only")
	} else {
		modelLoaded = true
		log.Println("Inference service is up, model loaded")
	}
	cancelProbe()

	gateway := services.NewModelGateway(classifier, modelLoaded)
	metrics := services.GetMetrics()

	var store *database.Store
	var histStore services.DetectionStore
	if cfg.DatabaseURL != "" {
		var err error
		store, err = database.InitStore(cfg.DatabaseURL)
		if err != nil {
			log.Printf("Detection history unavailable: %v", err)
			store = nil
		} else {
			histStore = store
			defer store.Close()
		}
	}

	svc := services.NewDetectionService(gateway, metrics, histStore, cfg)
	h := handlers.NewHandler(svc, metrics, store, cfg)

	log.Println("\n Starting HTTP server...")
	go startHTTPServer(cfg.HTTPPort, h, svc, metrics)

	// Ждём сигнала
	<-done
	log.Println("Shutting down...")

	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		log.Println("Stopping HTTP server...")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down HTTP server: %v", err)
		} else {
			log.Println("HTTP server gracefully stopped")
		}
	}

	log.Println("Closing WebSocket connections...")
	closeAllWebSocketConnections()
	log.Println("All WebSocket connections closed...")

	log.Println("Goodbye!")
}

func startHTTPServer(port string, h *handlers.Handler, svc *services.DetectionService, metrics *services.Metrics) {
	if len(port) > 0 && port[0] == ':' {
		port = port[1:]
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, svc, metrics)
	})

	mux.HandleFunc("/", h.Root)
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/deepfake", h.Deepfake)
	mux.HandleFunc("/detect", h.Detect)
	mux.HandleFunc("/detect-with-model", h.DetectWithModel)
	mux.HandleFunc("/metrics", h.Metrics)
	mux.HandleFunc("/history", h.History)

	httpServer = &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("HTTP server listening on port %s", port)
	log.Printf("WebSocket:  ws://localhost:%s/ws", port)
	log.Printf("REST API:   http://localhost:%s/*", port)

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to serve HTTP: %v", err)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, svc *services.DetectionService, metrics *services.Metrics) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	clientID := r.URL.Query().Get("clientId")
	if clientID == "" {
		clientID = generateClientID()
	}

	log.Printf("WebSocket client connected: %s", clientID)

	// Структура клиента
	client := &WebSocketClient{
		conn:     conn,
		clientID: clientID,
		send:     make(chan interface{}, 256),
	}

	// Регистрируем клиента
	wsClients.mu.Lock()
	wsClients.clients[clientID] = client
	wsClients.mu.Unlock()
	atomic.AddInt32(&wsClients.count, 1)
	metrics.IncrementWebSocketConnections()

	defer func() {
		// Удаляем клиента при отключении
		wsClients.mu.Lock()
		delete(wsClients.clients, clientID)
		wsClients.mu.Unlock()
		atomic.AddInt32(&wsClients.count, -1)
		metrics.DecrementWebSocketConnections()

		conn.Close()
		log.Printf("WebSocket client disconnected: %s", clientID)
	}()

	go writePump(client)

	// Отправляем приветственное сообщение
	welcomeMsg := WebSocketMessage{
		Type:      "WELCOME",
		ClientID:  clientID,
		Timestamp: time.Now().Unix(),
		Payload: map[string]interface{}{
			"message": "Connected to Deepfake Voice Detection Server",
			"version": handlers.Version,
		},
	}

	client.send <- welcomeMsg

	readPump(client, svc, metrics)
}

// Цикл чтения из WebSocket
func readPump(client *WebSocketClient, svc *services.DetectionService, metrics *services.Metrics) {
	defer func() {
		client.conn.Close()
	}()

	client.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		var msg WebSocketMessage
		err := client.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error for %s: %v", client.clientID, err)
				metrics.IncrementWebSocketErrors()
			}
			break
		}
		client.conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		log.Printf("Received from %s: %s", client.clientID, msg.Type)
		metrics.IncrementWebSocketMessages()

		// Обработка сообщений
		switch msg.Type {
		case "PING":
			client.send <- WebSocketMessage{
				Type:      "PONG",
				ClientID:  client.clientID,
				Timestamp: time.Now().Unix(),
			}

		case "DETECT":
			// Тот же контракт, что и POST /detect: всегда валидный ответ
			payload, err := json.Marshal(msg.Payload)
			if err != nil {
				payload = nil
			}
			result := svc.Detect(context.Background(), payload, "application/json")
			client.send <- WebSocketMessage{
				Type:      "RESULT",
				ClientID:  client.clientID,
				Timestamp: time.Now().Unix(),
				Payload:   result,
			}

		default:
			log.Printf("Unknown message type: %s", msg.Type)
		}
	}
}

// Цикл отправки в WebSocket
func writePump(client *WebSocketClient) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))

			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Генерация ID клиента
func generateClientID() string {
	return "client-" + time.Now().Format("20060102150405.000000000")
}

func closeAllWebSocketConnections() {
	wsClients.mu.Lock()
	defer wsClients.mu.Unlock()

	for clientID, client := range wsClients.clients {
		close(client.send)
		client.conn.Close()
		log.Printf("Closed connection for client: %s", clientID)
	}
	wsClients.clients = make(map[string]*WebSocketClient)
}
