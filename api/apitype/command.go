package apitype

// Command is a payload published to a topic.
type Command interface{}
