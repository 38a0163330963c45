package model

import "fmt"

const (
	// FirstSequenceNumber is the first number assigned to a collected init script.
	// Numbers below it are owned by the platform itself.
	FirstSequenceNumber = 10
	InitScriptExtension = ".sql"
)

type InitScript struct {
	Sequence       int
	RepositoryName string
	Source         string
	Destination    string
}

func InitScriptFileName(sequence int, repositoryName string) string {
	return fmt.Sprintf("%02d-%v%v", sequence, repositoryName, InitScriptExtension)
}
