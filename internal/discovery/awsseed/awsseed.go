// Package awsseed discovers a Chronicle node's cluster peers from EC2
// instance tags, for deployments that don't hand-write a static peer list.
package awsseed

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"chronicle/internal/leader"
)

// ec2API captures the EC2 operations awsseed uses, so tests can supply a
// lightweight fake instead of the real AWS SDK client.
type ec2API interface {
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
}

// Seeder discovers cluster peers by a shared EC2 tag.
type Seeder struct {
	api    ec2API
	region string
}

// NewSeeder builds a Seeder backed by the real AWS SDK client.
func NewSeeder(ctx context.Context, region string) (*Seeder, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("awsseed: load AWS config: %w", err)
	}
	return &Seeder{api: ec2.NewFromConfig(cfg), region: region}, nil
}

// PeerAddress pairs a discovered node identity with the address a
// PeerTransport would dial.
type PeerAddress struct {
	Peer leader.PeerID
	Host string
}

// DiscoverPeers finds every running EC2 instance carrying tagKey=tagValue
// and returns one PeerAddress per instance, keyed by its "chronicle-node-id"
// tag (falling back to the instance ID if that tag is absent).
func (s *Seeder) DiscoverPeers(ctx context.Context, tagKey, tagValue string) ([]PeerAddress, error) {
	input := &ec2.DescribeInstancesInput{
		Filters: []types.Filter{
			{Name: aws.String("tag:" + tagKey), Values: []string{tagValue}},
			{Name: aws.String("instance-state-name"), Values: []string{"running"}},
		},
	}

	result, err := s.api.DescribeInstances(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("awsseed: describe instances: %w", err)
	}

	var out []PeerAddress
	for _, reservation := range result.Reservations {
		for _, instance := range reservation.Instances {
			nodeID := aws.ToString(instance.InstanceId)
			for _, tag := range instance.Tags {
				if aws.ToString(tag.Key) == "chronicle-node-id" {
					nodeID = aws.ToString(tag.Value)
				}
			}
			host := aws.ToString(instance.PrivateIpAddress)
			if host == "" {
				continue
			}
			out = append(out, PeerAddress{Peer: leader.PeerID(nodeID), Host: host})
		}
	}
	return out, nil
}

// ClusterConfig builds a leader.ClusterConfig with a majority quorum over
// every discovered peer plus self.
func ClusterConfig(self leader.PeerID, discovered []PeerAddress) leader.ClusterConfig {
	peers := []leader.PeerID{self}
	for _, d := range discovered {
		if d.Peer != self {
			peers = append(peers, d.Peer)
		}
	}
	return leader.ClusterConfig{Peers: peers, Quorum: leader.Majority{Set: peers}}
}
