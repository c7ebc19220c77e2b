package repository

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// 旧データは_idがObjectID、新規は16進文字列で保存しているので両方で引く
func idFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": bson.M{"$in": bson.A{oid, id}}}
	}
	return bson.M{"_id": id}
}

func idsFilter(ids []string) bson.M {
	in := bson.A{}
	for _, id := range ids {
		in = append(in, id)
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			in = append(in, oid)
		}
	}
	return bson.M{"_id": bson.M{"$in": in}}
}
