// =============================
// File: internal/candymachine/programs.go
// =============================
package candymachine

import (
	"crypto/sha256"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	// CandyMachineProgramID – Candy Machine Core v3.
	CandyMachineProgramID = solana.MustPublicKeyFromBase58("CndyV3LdqHUfDLmE5naZjVN8rBZz4tqhdefbAnjHG3JR")
	// CandyGuardProgramID – Candy Guard v3.
	CandyGuardProgramID = solana.MustPublicKeyFromBase58("Guard1JwRhJkVH6XZhzoYxeBVQe872VH6QggF4BWmS9g")
	// TokenMetadataProgramID – Metaplex Token Metadata.
	TokenMetadataProgramID = solana.MustPublicKeyFromBase58("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")

	SysvarSlotHashesID    = solana.MustPublicKeyFromBase58("SysvarS1otHashes111111111111111111111111111")
	SysvarInstructionsID  = solana.MustPublicKeyFromBase58("Sysvar1nstructions1111111111111111111111111")
	AssociatedTokenProgID = solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
)

// anchorDiscriminator возвращает первые 8 байт sha256("<namespace>:<name>").
func anchorDiscriminator(namespace, name string) [8]byte {
	sum := sha256.Sum256([]byte(namespace + ":" + name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

var (
	candyMachineDiscriminator = anchorDiscriminator("account", "CandyMachine")
	candyGuardDiscriminator   = anchorDiscriminator("account", "CandyGuard")
	mintV2Discriminator       = anchorDiscriminator("global", "mint_v2")
)

// FindAuthorityPDA вычисляет authority PDA кэнди-машины.
func FindAuthorityPDA(candyMachine solana.PublicKey) (solana.PublicKey, error) {
	pda, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("candy_machine"), candyMachine.Bytes()},
		CandyMachineProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive authority PDA: %w", err)
	}
	return pda, nil
}

// FindMetadataPDA вычисляет адрес metadata-аккаунта для mint.
func FindMetadataPDA(mint solana.PublicKey) (solana.PublicKey, error) {
	pda, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("metadata"), TokenMetadataProgramID.Bytes(), mint.Bytes()},
		TokenMetadataProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive metadata PDA: %w", err)
	}
	return pda, nil
}

// FindMasterEditionPDA вычисляет адрес master edition для mint.
func FindMasterEditionPDA(mint solana.PublicKey) (solana.PublicKey, error) {
	pda, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("metadata"), TokenMetadataProgramID.Bytes(), mint.Bytes(), []byte("edition")},
		TokenMetadataProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive master edition PDA: %w", err)
	}
	return pda, nil
}

// FindCollectionDelegateRecordPDA вычисляет metadata delegate record,
// через который authority PDA кэнди-машины верифицирует коллекцию.
func FindCollectionDelegateRecordPDA(collectionMint, updateAuthority, delegate solana.PublicKey) (solana.PublicKey, error) {
	pda, _, err := solana.FindProgramAddress(
		[][]byte{
			[]byte("metadata"),
			TokenMetadataProgramID.Bytes(),
			collectionMint.Bytes(),
			[]byte("collection_delegate"),
			updateAuthority.Bytes(),
			delegate.Bytes(),
		},
		TokenMetadataProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive collection delegate record: %w", err)
	}
	return pda, nil
}

// FindMintCounterPDA вычисляет счётчик guard-а mintLimit для пары (id, minter).
func FindMintCounterPDA(id uint8, minter, candyGuard, candyMachine solana.PublicKey) (solana.PublicKey, error) {
	pda, _, err := solana.FindProgramAddress(
		[][]byte{
			[]byte("mint_limit"),
			{id},
			minter.Bytes(),
			candyGuard.Bytes(),
			candyMachine.Bytes(),
		},
		CandyGuardProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive mint counter PDA: %w", err)
	}
	return pda, nil
}
