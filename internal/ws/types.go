package ws

const (
	// client - server
	MsgMove   = "move"
	MsgCancel = "cancel"
	MsgPing   = "ping"

	// server - client
	MsgStatus = "status"
	MsgPong   = "pong"
	MsgAck    = "ack"
	MsgError  = "error"
)
