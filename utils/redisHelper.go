package utils

import (
	"reflect"
	"time"

	"github.com/shamseergtct/gtct-analytics/config"
)

func GetCacheLifespan() time.Duration {
	return time.Hour
}

/* generic functions */

func GetTypeName[T any]() string {
	var v T
	return reflect.TypeOf(v).Name()
}

/* Redis */

// store instance, Type:$id
func StoreRedis[T any](obj *T, id string) error {
	return config.SetRedisObject(GetTypeName[T]()+":"+id, obj, GetCacheLifespan())
}

// get from redis
// returns nil if does not exist
func RetrieveRedis[T any](id string) (*T, error) {
	var result *T
	exists, err := config.GetRedisObject(GetTypeName[T]()+":"+id, &result)
	if err != nil || !exists {
		return nil, err
	}
	return result, nil
}

// remove an instance, Type:$id
func RemoveRedisItem[T any](id string) error {
	return config.RemoveRedisKey(GetTypeName[T]() + ":" + id)
}

// store list, TypeList:$client_id
func StoreRedisList[T any](list []*T, clientId string) error {
	return config.SetRedisObject(GetTypeName[T]()+"List:"+clientId, list, GetCacheLifespan())
}

// retrieve a list, nil when absent
func RetrieveRedisList[T any](clientId string) ([]*T, error) {
	var result []*T
	exists, err := config.GetRedisObject(GetTypeName[T]()+"List:"+clientId, &result)
	if err != nil || !exists {
		return nil, err
	}
	return result, nil
}

// clear list, TypeList:$client_id
func RemoveRedisList[T any](clientId string) error {
	return config.RemoveRedisKey(GetTypeName[T]() + "List:" + clientId)
}
