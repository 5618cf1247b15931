package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type cmdLineOpts struct {
	Parsed struct {
		Replication struct {
			ReplSetName string `bson:"replSetName"`
		} `bson:"replication"`
	} `bson:"parsed"`
}

// IsReplicaSet reports whether the server was started as a replica set
// member, which is required for session transactions.
func IsReplicaSet(ctx context.Context, client *mongo.Client) (bool, error) {
	var opts cmdLineOpts
	err := client.Database("admin").
		RunCommand(ctx, bson.D{{Key: "getCmdLineOpts", Value: 1}}).
		Decode(&opts)
	if err != nil {
		return false, err
	}
	return opts.Parsed.Replication.ReplSetName != "", nil
}
