package main

import (
	"github.com/voidshard/foreman/pkg/database"
)

type optsMigrate struct {
	optsGeneral
	optsDatabase
}

func (c *optsMigrate) Execute(args []string) error {
	_, flush, err := c.setup()
	if err != nil {
		return err
	}
	defer flush()

	return database.Migrate(&database.Options{URL: c.url()})
}
