package errors

import "errors"

// Custom application errors
var (
	ErrInvalidEvent        = errors.New("invalid calendar event")                // Missing or inconsistent timestamps
	ErrInvalidAction       = errors.New("unknown reminder action")               // Action name not recognised
	ErrInvalidSettings     = errors.New("invalid notification settings")         // Settings failed validation
	ErrPersistence         = errors.New("reminder persistence failed")           // Reminder file could not be read or written
	ErrDeliveryUnavailable = errors.New("presentation layer unavailable")        // Dispatcher stopped or queue full
	ErrDatabaseOperation   = errors.New("database operation failed")             // Generic settings database error
	ErrEventSource         = errors.New("event source failed")                   // Calendar events could not be loaded
	ErrLineAPI             = errors.New("communication with LINE API failed")    // Generic LINE API error
	ErrScheduling          = errors.New("scheduling failed")                     // Cron registration error
	ErrEventSourceMissing  = errors.New("no event source configured for reload") // Reload requested without a source
)
