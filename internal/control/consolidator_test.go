package control

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/abiregistry/internal/core/domain"
	"github.com/vietddude/abiregistry/internal/registry"
)

const (
	buildABI  = `[{"type":"function","name":"stake","inputs":[{"name":"amount","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"}]`
	recordABI = `[{"type":"function","name":"claim","inputs":[],"outputs":[],"stateMutability":"nonpayable"}]`
	otherABI  = `[{"type":"event","name":"Claimed","inputs":[],"anonymous":false}]`
)

type monorepo struct {
	t    *testing.T
	base string
}

func newMonorepo(t *testing.T) *monorepo {
	return &monorepo{t: t, base: t.TempDir()}
}

func (m *monorepo) path(rel string) string {
	return filepath.Join(m.base, filepath.FromSlash(rel))
}

func (m *monorepo) write(rel, content string) {
	m.t.Helper()
	path := m.path(rel)
	require.NoError(m.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(m.t, os.WriteFile(path, []byte(content), 0o644))
}

func (m *monorepo) roots() []domain.SourceRoot {
	return []domain.SourceRoot{
		{Name: "out", Kind: domain.SourceBuildOutput, Path: m.path("foundry/out")},
		{Name: "broadcast", Kind: domain.SourceBroadcast, Path: m.path("foundry/broadcast")},
		{Name: "deployments", Kind: domain.SourceDeployments, Path: m.path("hardhat/deployments")},
	}
}

func (m *monorepo) entities(names ...string) []domain.TrackedEntity {
	entities := make([]domain.TrackedEntity, 0, len(names))
	for _, name := range names {
		entities = append(entities, domain.TrackedEntity{Name: name, Roots: m.roots()})
	}
	return entities
}

func (m *monorepo) consolidator(entities []domain.TrackedEntity, opts ...Option) *Consolidator {
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return NewConsolidator(Config{RegistryDir: m.path("abis"), Entities: entities}, opts...)
}

func (m *monorepo) run(entities []domain.TrackedEntity, opts ...Option) *domain.Result {
	m.t.Helper()
	result, err := m.consolidator(entities, opts...).Run(context.Background())
	require.NoError(m.t, err)
	return result
}

func (m *monorepo) addresses(entity string) domain.AddressMap {
	m.t.Helper()
	got, err := registry.NewStore(m.path("abis")).ReadAddresses(entity)
	require.NoError(m.t, err)
	return got
}

func (m *monorepo) descriptor(entity string) string {
	m.t.Helper()
	data, err := os.ReadFile(m.path("abis/" + entity + ".json"))
	require.NoError(m.t, err)
	return string(data)
}

func (m *monorepo) snapshot() map[string]string {
	m.t.Helper()
	entries, err := os.ReadDir(m.path("abis"))
	require.NoError(m.t, err)
	files := make(map[string]string, len(entries))
	for _, e := range entries {
		data, err := os.ReadFile(m.path("abis/" + e.Name()))
		require.NoError(m.t, err)
		files[e.Name()] = string(data)
	}
	return files
}

func TestConsolidator_ExampleScenario(t *testing.T) {
	m := newMonorepo(t)
	m.write("hardhat/deployments/A/Token.json", `{"address": "0x111"}`)
	m.write("hardhat/deployments/B/Token.json", `{"address": "0x222"}`)

	result := m.run(m.entities("Token"))
	assert.Equal(t, domain.AddressMap{"A": "0x111", "B": "0x222"}, m.addresses("Token"))
	assert.Equal(t, 1, result.AddressMapsWritten)
	assert.Empty(t, result.Errors)

	m.write("hardhat/deployments/B/Token.json", `{"address": "0x333"}`)

	m.run(m.entities("Token"))
	assert.Equal(t, domain.AddressMap{"A": "0x111", "B": "0x333"}, m.addresses("Token"))
}

func TestConsolidator_Idempotent(t *testing.T) {
	m := newMonorepo(t)
	m.write("foundry/out/PIKU.sol/PIKU.json", `{"abi": `+buildABI+`, "bytecode": {"object": "0x"}}`)
	m.write("foundry/broadcast/Deploy.s.sol/1/run-latest.json", `{"transactions": [
		{"contractName": "PIKU", "contractAddress": "0xaaa"},
		{"contractName": "CumulativeMerkleDrop", "contractAddress": "0xccc"}
	]}`)
	m.write("hardhat/deployments/sepolia/.chainId", "11155111")
	m.write("hardhat/deployments/sepolia/CumulativeMerkleDrop.json", `{"address": "0xddd", "abi": `+recordABI+`}`)
	entities := m.entities("PIKU", "CumulativeMerkleDrop")

	first := m.run(entities)
	assert.Equal(t, 2, first.DescriptorsWritten)
	assert.Equal(t, 2, first.AddressMapsWritten)
	before := m.snapshot()

	second := m.run(entities)
	assert.Zero(t, second.DescriptorsWritten)
	assert.Zero(t, second.AddressMapsWritten)
	assert.Empty(t, second.Errors)
	assert.Equal(t, before, m.snapshot())
	assert.NotEqual(t, first.RunID, second.RunID)

	assert.Equal(t, domain.AddressMap{"1": "0xccc", "11155111": "0xddd"}, m.addresses("CumulativeMerkleDrop"))
}

func TestConsolidator_AddressMonotonic(t *testing.T) {
	m := newMonorepo(t)
	m.write("hardhat/deployments/1/Token.json", `{"address": "0xaaa"}`)
	m.write("hardhat/deployments/137/Token.json", `{"address": "0xbbb"}`)
	m.run(m.entities("Token"))

	require.NoError(t, os.RemoveAll(m.path("hardhat/deployments/137")))
	m.write("hardhat/deployments/8453/Token.json", `{"address": "0xccc"}`)
	m.run(m.entities("Token"))

	assert.Equal(t, domain.AddressMap{"1": "0xaaa", "137": "0xbbb", "8453": "0xccc"}, m.addresses("Token"))
}

func TestConsolidator_LaterRootOverridesEarlier(t *testing.T) {
	m := newMonorepo(t)
	m.write("foundry/broadcast/Deploy.s.sol/1/run-latest.json",
		`{"transactions": [{"contractName": "Token", "contractAddress": "0xaaa"}]}`)
	m.write("hardhat/deployments/mainnet/.chainId", "1")
	m.write("hardhat/deployments/mainnet/Token.json", `{"address": "0xbbb"}`)

	m.run(m.entities("Token"))
	assert.Equal(t, domain.AddressMap{"1": "0xbbb"}, m.addresses("Token"))
}

func TestConsolidator_FirstDescriptorWins(t *testing.T) {
	// Network directory names before and after the build output path in
	// lexical order must not change the outcome.
	for _, network := range []string{"0-local", "zz-testnet"} {
		t.Run(network, func(t *testing.T) {
			m := newMonorepo(t)
			m.write("hardhat/deployments/"+network+"/Staking.json", `{"address": "0x1", "abi": `+recordABI+`}`)
			m.write("foundry/out/Staking.sol/Staking.json", `{"abi": `+buildABI+`}`)

			result := m.run(m.entities("Staking"))
			assert.JSONEq(t, buildABI, m.descriptor("Staking"))
			require.Len(t, result.Entities, 1)
			assert.Equal(t, domain.DescriptorFromBuildOutput, result.Entities[0].DescriptorSource)
		})
	}
}

func TestConsolidator_FirstRecordDescriptorWins(t *testing.T) {
	m := newMonorepo(t)
	m.write("hardhat/deployments/arbitrum/Drop.json", `{"address": "0x1", "abi": `+recordABI+`}`)
	m.write("hardhat/deployments/base/Drop.json", `{"address": "0x2", "abi": `+otherABI+`}`)

	result := m.run(m.entities("Drop"))
	assert.JSONEq(t, recordABI, m.descriptor("Drop"))
	assert.Equal(t, domain.DescriptorFromDeployRecord, result.Entities[0].DescriptorSource)
}

func TestConsolidator_PersistedDescriptorReplacedOnlyByBuildOutput(t *testing.T) {
	m := newMonorepo(t)
	m.write("hardhat/deployments/base/Drop.json", `{"address": "0x1", "abi": `+recordABI+`}`)
	m.run(m.entities("Drop"))
	assert.JSONEq(t, recordABI, m.descriptor("Drop"))

	// a different embedded descriptor does not replace the persisted one
	m.write("hardhat/deployments/base/Drop.json", `{"address": "0x1", "abi": `+otherABI+`}`)
	result := m.run(m.entities("Drop"))
	assert.JSONEq(t, recordABI, m.descriptor("Drop"))
	assert.Zero(t, result.DescriptorsWritten)

	// build output is authoritative
	m.write("foundry/out/Drop.sol/Drop.json", `{"abi": `+buildABI+`}`)
	result = m.run(m.entities("Drop"))
	assert.JSONEq(t, buildABI, m.descriptor("Drop"))
	assert.Equal(t, 1, result.DescriptorsWritten)
}

func TestConsolidator_FaultIsolation(t *testing.T) {
	m := newMonorepo(t)
	m.write("hardhat/deployments/bad/Drop.json", `{"address": `)
	m.write("hardhat/deployments/good/Drop.json", `{"address": "0xd"}`)
	m.write("hardhat/deployments/bad/Token.json", `{"address": "0xt"}`)
	m.write("foundry/out/Token.sol/Token.json", `{"abi": `+buildABI+`}`)

	result := m.run(m.entities("Drop", "Token"))

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Drop", result.Errors[0].Entity)
	assert.Equal(t, m.path("hardhat/deployments/bad/Drop.json"), result.Errors[0].Path)
	assert.Contains(t, result.Errors[0].Reason, "malformed artifact")
	assert.True(t, result.Failed())

	assert.Equal(t, domain.AddressMap{"good": "0xd"}, m.addresses("Drop"))
	assert.Equal(t, domain.AddressMap{"bad": "0xt"}, m.addresses("Token"))
	assert.JSONEq(t, buildABI, m.descriptor("Token"))
}

func TestConsolidator_MalformedBuildOutputFallsBackToRecord(t *testing.T) {
	m := newMonorepo(t)
	m.write("foundry/out/Drop.sol/Drop.json", `{"bytecode": "0x"}`)
	m.write("hardhat/deployments/base/Drop.json", `{"address": "0x1", "abi": `+recordABI+`}`)

	result := m.run(m.entities("Drop"))
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Reason, "missing field")
	assert.JSONEq(t, recordABI, m.descriptor("Drop"))
}

func TestConsolidator_ChainIdentityPrecedence(t *testing.T) {
	m := newMonorepo(t)
	m.write("hardhat/deployments/1/.chainId", "mainnet\n")
	m.write("hardhat/deployments/1/Token.json", `{"address": "0xaaa"}`)

	m.run(m.entities("Token"))
	assert.Equal(t, domain.AddressMap{"mainnet": "0xaaa"}, m.addresses("Token"))
}

func TestConsolidator_NoAddresses(t *testing.T) {
	m := newMonorepo(t)
	m.write("foundry/out/Lib.sol/Lib.json", `{"abi": []}`)

	result := m.run(m.entities("Lib", "Ghost"))
	assert.Empty(t, result.Errors)
	assert.Zero(t, result.AddressMapsWritten)
	assert.NoFileExists(t, m.path("abis/Lib.address.json"))
	assert.NoFileExists(t, m.path("abis/Ghost.address.json"))
	assert.NoFileExists(t, m.path("abis/Ghost.json"))
	assert.FileExists(t, m.path("abis/Lib.json"))
}

func TestConsolidator_ExplicitInterfacePaths(t *testing.T) {
	m := newMonorepo(t)
	m.write("artifacts/Vault.json", `{"abi": `+otherABI+`}`)
	m.write("foundry/out/Vault.sol/Vault.json", `{"abi": `+buildABI+`}`)

	entity := domain.TrackedEntity{
		Name:           "Vault",
		InterfacePaths: []string{m.path("artifacts/Vault.json")},
		Roots:          m.roots(),
	}
	m.run([]domain.TrackedEntity{entity})
	assert.JSONEq(t, otherABI, m.descriptor("Vault"))
}

func TestConsolidator_PrepareFailure(t *testing.T) {
	m := newMonorepo(t)
	m.write("abis", "a file where the registry dir should be")

	result, err := m.consolidator(m.entities("Token")).Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, result)
}

func TestConsolidator_Cancelled(t *testing.T) {
	m := newMonorepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.consolidator(m.entities("Token")).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

type fakePublisher struct {
	addresses   map[string]domain.AddressMap
	descriptors map[string]string
	runs        []string
	err         error
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{
		addresses:   make(map[string]domain.AddressMap),
		descriptors: make(map[string]string),
	}
}

func (p *fakePublisher) PublishAddresses(_ context.Context, entity string, addresses domain.AddressMap) error {
	if p.err != nil {
		return p.err
	}
	p.addresses[entity] = addresses
	return nil
}

func (p *fakePublisher) PublishDescriptor(_ context.Context, entity string, d domain.InterfaceDescriptor) error {
	if p.err != nil {
		return p.err
	}
	p.descriptors[entity] = string(d)
	return nil
}

func (p *fakePublisher) MarkRun(_ context.Context, runID string, _ time.Time) error {
	p.runs = append(p.runs, runID)
	return p.err
}

func TestConsolidator_Publisher(t *testing.T) {
	m := newMonorepo(t)
	m.write("foundry/out/Token.sol/Token.json", `{"abi": `+buildABI+`}`)
	m.write("hardhat/deployments/1/Token.json", `{"address": "0xaaa"}`)

	pub := newFakePublisher()
	result := m.run(m.entities("Token"), WithPublisher(pub))

	assert.Equal(t, domain.AddressMap{"1": "0xaaa"}, pub.addresses["Token"])
	assert.JSONEq(t, buildABI, pub.descriptors["Token"])
	assert.Equal(t, []string{result.RunID}, pub.runs)
}

func TestConsolidator_PublisherFailureIsNotFatal(t *testing.T) {
	m := newMonorepo(t)
	m.write("hardhat/deployments/1/Token.json", `{"address": "0xaaa"}`)

	pub := newFakePublisher()
	pub.err = errors.New("connection refused")
	result := m.run(m.entities("Token"), WithPublisher(pub))

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "mirror", result.Errors[0].Path)
	assert.Equal(t, domain.AddressMap{"1": "0xaaa"}, m.addresses("Token"))
}

func TestConsolidator_Clock(t *testing.T) {
	m := newMonorepo(t)
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	calls := 0
	clock := func() time.Time {
		calls++
		return start.Add(time.Duration(calls) * time.Second)
	}

	result := m.run(m.entities("Token"), WithClock(clock))
	assert.Equal(t, time.Second, result.FinishedAt.Sub(result.StartedAt))
}
