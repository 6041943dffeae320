package models

import (
	"github.com/shamseergtct/gtct-analytics/utils"
)

type RedisCleaner interface {
	RemoveInstanceRedis() error // remove one
	RemoveAllRedis() error      // remove the client's list if cached
}

// remove both item & list
func RemoveRedisBoth[T RedisCleaner](obj T) error {
	if err := obj.RemoveInstanceRedis(); err != nil {
		return err
	}
	if err := obj.RemoveAllRedis(); err != nil {
		return err
	}
	return nil
}

func (obj Client) RemoveInstanceRedis() error {
	return utils.RemoveRedisItem[Client](obj.ID)
}

// clients are listed straight from the database
func (obj Client) RemoveAllRedis() error {
	return nil
}

// parties are only cached as a list
func (obj Party) RemoveInstanceRedis() error {
	return nil
}

func (obj Party) RemoveAllRedis() error {
	return utils.RemoveRedisList[Party](obj.ClientId)
}
