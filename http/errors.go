package httpx

import "errors"

// Listener errors are fatal: the accept loop stops and the process exits.
var (
	ErrSocketCreate = errors.New("socket: can't create listening socket")
	ErrBind         = errors.New("bind: can't bind to host:port")
	ErrListen       = errors.New("listen: can't mark socket as listening")
	ErrAccept       = errors.New("accept: can't accept connection")
)

// Exchange errors end one connection; the server keeps accepting.
var (
	ErrReceive  = errors.New("exchange: can't read request")
	ErrFileOpen = errors.New("exchange: can't open served file")
	ErrFileRead = errors.New("exchange: can't read served file")
	ErrWrite    = errors.New("exchange: can't write response")
)
