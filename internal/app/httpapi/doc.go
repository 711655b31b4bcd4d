// Package httpapi exposes the todo service over HTTP.
//
// Every API response is an envelope {status, message, data?, error?}. The
// envelope status carries the outcome; the transport status is 200 unless
// Config.MirrorStatus is set. Requests rejected by the auth gate always get
// a transport 401.
//
// Routes:
//
//	GET    /                          banner (plain text)
//	POST   /register                  {name, email, username, password}
//	POST   /login                     {loginId, password}, sets the session cookie
//	POST   /logout                    destroys the current session
//	POST   /logout_from_all_devices   destroys every session of the caller
//	POST   /create-item               {todoText}
//	GET    /read-item                 caller's todos
//	POST   /edit-item                 {id, newData}
//	DELETE /delete-item/{id}
//	GET    /healthz, /metrics         operational endpoints
package httpapi
