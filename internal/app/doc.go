// Package app provides the Application Composition Layer for the todo service.
//
// # Architecture Role
//
// The app package composes stores and services into a running application.
// Business rules live in internal/app/services; the HTTP surface lives in
// internal/app/httpapi.
//
// # Package Structure
//
//	internal/app/
//	├── application.go      # Application struct, wiring and lifecycle
//	├── domain/             # Domain models (pure data structures)
//	│   ├── user/           # Registered users
//	│   ├── todo/           # Todo items
//	│   └── session/        # Persisted session records
//	├── storage/            # Storage interfaces and implementations
//	│   ├── interfaces.go   # UserStore, TodoStore, SessionStore
//	│   ├── memory/         # In-memory implementation
//	│   ├── postgres/       # PostgreSQL implementation
//	│   └── redis/          # Redis session store
//	├── services/           # accounts (register/login/logout), todos (CRUD)
//	├── httpapi/            # Router and request handlers
//	├── runtime/            # Process wiring from config, server lifecycle
//	└── system/             # Lifecycle manager for background services
//
// # Dependency Direction
//
//	cmd/todoserver/
//	      │
//	      ▼
//	internal/app/runtime ──► internal/app/httpapi
//	      │                        │
//	      ▼                        ▼
//	internal/app (composition) ──► internal/app/services
//	      │                        │
//	      ▼                        ▼
//	internal/session         internal/app/storage
//
// # Example: Adding a New Domain
//
//  1. Create domain models in internal/app/domain/<name>/
//  2. Add a storage interface to internal/app/storage/interfaces.go
//  3. Implement it in internal/app/storage/postgres/ and memory/
//  4. Create the service in internal/app/services/<name>/service.go
//  5. Wire the service in internal/app/application.go
//  6. Add HTTP handlers in internal/app/httpapi/
package app
