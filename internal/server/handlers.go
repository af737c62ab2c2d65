package server

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// WebSocketHandler upgrades GET requests to WebSocket and registers the new
// client with the hub, which launches its pumps.
func (s *Server) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	client := NewClient(conn, s.hub, r.RemoteAddr, s.config, s.log)
	if !s.hub.Register(client) {
		s.log.Warn("Hub is shut down; rejecting connection", "addr", r.RemoteAddr)
		client.closeConnection()
	}
}

// HealthHandler reports that the server is up.
func (s *Server) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprint(w, "Server is running")
}

// RoomsHandler lists non-empty rooms and their members as JSON.
func (s *Server) RoomsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.hub.state.Rooms()); err != nil {
		s.log.Error("Error writing rooms response", "error", err)
	}
}

// TestPageHandler serves an HTML page for trying the chat from a browser.
func (s *Server) TestPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if _, err := fmt.Fprint(w, testPageHTML); err != nil {
		s.log.Error("Error writing HTML response", "error", err)
	}
}

const testPageHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Room Chat Test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #messages {
            border: 1px solid #ccc;
            height: 300px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
        }
        input[type="text"] { width: 200px; padding: 5px; margin-right: 10px; }
        button { padding: 5px 15px; background-color: #1976d2; color: white; border: none; cursor: pointer; }
        button:disabled { background-color: #999; }
        .status { margin: 10px 0; padding: 5px; border-radius: 3px; }
        .connected { background-color: #d4edda; color: #155724; }
        .disconnected { background-color: #f8d7da; color: #721c24; }
    </style>
</head>
<body>
    <h1>Room Chat Test</h1>

    <div id="status" class="status disconnected">Disconnected</div>

    <form id="joinForm">
        <input type="text" id="username" placeholder="Username">
        <input type="text" id="room" placeholder="Room">
        <button type="submit">Join</button>
    </form>

    <form id="sendForm">
        <input type="text" id="messageInput" placeholder="Type a message..." disabled>
        <button id="sendButton" type="submit" disabled>Send</button>
    </form>

    <div id="messages"></div>

    <script>
        const messagesDiv = document.getElementById('messages');
        const statusDiv = document.getElementById('status');
        const messageInput = document.getElementById('messageInput');
        const sendButton = document.getElementById('sendButton');
        let ws = null;
        let nextId = 1;
        let joined = { room: '', username: '' };
        const pending = {};

        function addLine(text, color) {
            const line = document.createElement('div');
            line.style.margin = '5px 0';
            line.style.color = color || 'gray';
            line.textContent = text;
            messagesDiv.appendChild(line);
            messagesDiv.scrollTop = messagesDiv.scrollHeight;
        }

        function setStatus(text, ok) {
            statusDiv.textContent = text;
            statusDiv.className = 'status ' + (ok ? 'connected' : 'disconnected');
        }

        function emit(event, data, onAck) {
            const frame = { event: event, data: data };
            if (onAck) {
                frame.id = nextId++;
                pending[frame.id] = onAck;
            }
            ws.send(JSON.stringify(frame));
        }

        function connect(then) {
            const scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
            ws = new WebSocket(scheme + location.host + '/ws');
            ws.onopen = function() { setStatus('Connected', true); then(); };
            ws.onclose = function() {
                setStatus('Disconnected', false);
                messageInput.disabled = true;
                sendButton.disabled = true;
                ws = null;
            };
            ws.onmessage = function(event) {
                const frame = JSON.parse(event.data);
                switch (frame.event) {
                case 'ack':
                    if (frame.id && pending[frame.id]) {
                        pending[frame.id](frame.data);
                        delete pending[frame.id];
                    }
                    break;
                case 'welcome':
                    addLine(frame.data.text);
                    break;
                case 'receive-message':
                    const mine = frame.data.username === joined.username;
                    addLine(frame.data.username + ': ' + frame.data.message, mine ? 'blue' : 'green');
                    break;
                case 'error':
                    addLine('Error: ' + frame.data.message, 'red');
                    break;
                }
            };
        }

        document.getElementById('joinForm').addEventListener('submit', function(e) {
            e.preventDefault();
            const username = document.getElementById('username').value.trim();
            const room = document.getElementById('room').value.trim();
            if (!username || !room) {
                addLine('Username and room name are required.', 'red');
                return;
            }
            const join = function() {
                emit('join', { room: room, username: username }, function(ack) {
                    if (ack.success) {
                        joined = { room: room, username: username };
                        messageInput.disabled = false;
                        sendButton.disabled = false;
                        setStatus('Joined room ' + room + ' as ' + username, true);
                    } else {
                        addLine(ack.message, 'red');
                    }
                });
            };
            if (ws && ws.readyState === WebSocket.OPEN) {
                join();
            } else {
                connect(join);
            }
        });

        document.getElementById('sendForm').addEventListener('submit', function(e) {
            e.preventDefault();
            const text = messageInput.value.trim();
            if (!text || !ws) {
                return;
            }
            emit('message', { message: text, room: joined.room, username: joined.username });
            messageInput.value = '';
        });
    </script>
</body>
</html>`
