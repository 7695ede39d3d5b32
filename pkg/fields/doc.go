// Package fields implements the typed template-field model used by page
// forms. A template supplies Definitions (possibly nested through REPEATER
// groups), the server supplies previously saved IncomingFields, and the
// Engine reconciles the two into an identity-bearing tree of Fields that an
// editor can mutate. Flatten walks the tree back into the slim OutgoingField
// payload the server accepts.
//
// Merge and Flatten are total: unknown kinds resolve to the DEFAULT handler,
// missing or malformed incoming values fall back to the kind's default value,
// and incoming entries without a matching definition are dropped. Neither
// operation returns an error or mutates its input.
package fields
