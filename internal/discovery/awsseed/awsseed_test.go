package awsseed

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"chronicle/internal/leader"
)

// mockEC2Client implements the ec2API interface for testing.
type mockEC2Client struct {
	output *ec2.DescribeInstancesOutput
	err    error
}

func (m *mockEC2Client) DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	return m.output, m.err
}

func TestDiscoverPeers(t *testing.T) {
	mock := &mockEC2Client{
		output: &ec2.DescribeInstancesOutput{
			Reservations: []types.Reservation{
				{
					Instances: []types.Instance{
						{
							InstanceId:       aws.String("i-123"),
							PrivateIpAddress: aws.String("10.0.0.1"),
							Tags: []types.Tag{
								{Key: aws.String("chronicle-node-id"), Value: aws.String("node-a")},
							},
						},
						{
							InstanceId:       aws.String("i-456"),
							PrivateIpAddress: aws.String("10.0.0.2"),
						},
					},
				},
			},
		},
	}

	s := &Seeder{api: mock, region: "us-east-1"}
	peers, err := s.DiscoverPeers(context.Background(), "chronicle-cluster", "prod")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(peers) != 2 {
		t.Fatalf("expected 2 peers, got %d", len(peers))
	}
	if peers[0].Peer != "node-a" || peers[0].Host != "10.0.0.1" {
		t.Errorf("unexpected first peer: %#v", peers[0])
	}
	if peers[1].Peer != "i-456" || peers[1].Host != "10.0.0.2" {
		t.Errorf("expected fallback to instance ID, got %#v", peers[1])
	}
}

func TestClusterConfig(t *testing.T) {
	discovered := []PeerAddress{
		{Peer: "node-b", Host: "10.0.0.2"},
		{Peer: "node-a", Host: "10.0.0.1"}, // self, must be deduped
	}
	cc := ClusterConfig(leader.PeerID("node-a"), discovered)
	if len(cc.Peers) != 2 {
		t.Fatalf("expected self plus one discovered peer, got %v", cc.Peers)
	}
}
