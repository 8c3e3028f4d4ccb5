package domain

// KeyPrefix namespaces every docdex key in the shared database.
const KeyPrefix = "docdex:"
