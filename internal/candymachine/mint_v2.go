// =============================
// File: internal/candymachine/mint_v2.go
// =============================
package candymachine

import (
	"bytes"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

var ErrMissingAccount = errors.New("missing required mint account")

// TokenPaymentArgs – аргументы guard-а tokenPayment для инструкции минта.
type TokenPaymentArgs struct {
	Mint           solana.PublicKey
	DestinationAta solana.PublicKey
}

// MintLimitArgs – аргументы guard-а mintLimit для инструкции минта.
type MintLimitArgs struct {
	ID uint8
}

// MintArgs – guard-специфичные аргументы минта. Nil-поле означает,
// что guard для этой машины не настроен.
type MintArgs struct {
	TokenPayment *TokenPaymentArgs
	MintLimit    *MintLimitArgs
}

// IsEmpty сообщает, что ни один guard не требует аргументов.
func (a MintArgs) IsEmpty() bool {
	return a.TokenPayment == nil && a.MintLimit == nil
}

// MintParams описывает один вызов mint_v2 через Candy Guard.
type MintParams struct {
	Machine Machine
	Guard   Guard
	// Payer платит комиссию и токены, Minter получает NFT; обычно это один кошелёк.
	Payer     solana.PublicKey
	Minter    solana.PublicKey
	AssetMint solana.PublicKey
	Args      MintArgs
	Group     string
}

// MintV2Builder собирает инструкцию mint_v2 программы Candy Guard.
type MintV2Builder struct{}

// NewMintV2Builder создает билдер инструкций mint_v2
func NewMintV2Builder() *MintV2Builder {
	return &MintV2Builder{}
}

func meta(key solana.PublicKey, writable, signer bool) *solana.AccountMeta {
	return &solana.AccountMeta{PublicKey: key, IsWritable: writable, IsSigner: signer}
}

// BuildMintV2 возвращает инструкцию минта одного NFT из кэнди-машины.
func (b *MintV2Builder) BuildMintV2(p MintParams) (solana.Instruction, error) {
	if p.Machine.PublicKey.IsZero() || p.Guard.PublicKey.IsZero() ||
		p.Payer.IsZero() || p.Minter.IsZero() || p.AssetMint.IsZero() {
		return nil, ErrMissingAccount
	}

	authorityPDA, err := FindAuthorityPDA(p.Machine.PublicKey)
	if err != nil {
		return nil, err
	}
	nftMetadata, err := FindMetadataPDA(p.AssetMint)
	if err != nil {
		return nil, err
	}
	nftMasterEdition, err := FindMasterEditionPDA(p.AssetMint)
	if err != nil {
		return nil, err
	}
	nftToken, _, err := solana.FindAssociatedTokenAddress(p.Minter, p.AssetMint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive NFT token account: %w", err)
	}

	collectionUpdateAuthority := p.Machine.Authority
	collectionMetadata, err := FindMetadataPDA(p.Machine.CollectionMint)
	if err != nil {
		return nil, err
	}
	collectionMasterEdition, err := FindMasterEditionPDA(p.Machine.CollectionMint)
	if err != nil {
		return nil, err
	}
	delegateRecord, err := FindCollectionDelegateRecordPDA(
		p.Machine.CollectionMint, collectionUpdateAuthority, authorityPDA)
	if err != nil {
		return nil, err
	}

	// Опциональные аккаунты Anchor, которые не используются для
	// NonFungible, передаются как ID самой программы.
	absent := CandyGuardProgramID

	accounts := solana.AccountMetaSlice{
		meta(p.Guard.PublicKey, false, false),
		meta(CandyMachineProgramID, false, false),
		meta(p.Machine.PublicKey, true, false),
		meta(authorityPDA, true, false),
		meta(p.Payer, true, true),
		meta(p.Minter, true, true),
		meta(p.AssetMint, true, true),
		meta(p.Minter, false, true),
		meta(nftMetadata, true, false),
		meta(nftMasterEdition, true, false),
		meta(nftToken, true, false),
		meta(absent, false, false), // token record
		meta(delegateRecord, false, false),
		meta(p.Machine.CollectionMint, false, false),
		meta(collectionMetadata, true, false),
		meta(collectionMasterEdition, false, false),
		meta(collectionUpdateAuthority, false, false),
		meta(TokenMetadataProgramID, false, false),
		meta(solana.TokenProgramID, false, false),
		meta(AssociatedTokenProgID, false, false),
		meta(solana.SystemProgramID, false, false),
		meta(SysvarInstructionsID, false, false),
		meta(SysvarSlotHashesID, false, false),
		meta(absent, false, false), // authorization rules program
		meta(absent, false, false), // authorization rules
	}

	remaining, err := remainingAccounts(p)
	if err != nil {
		return nil, err
	}
	accounts = append(accounts, remaining...)

	data, err := encodeMintV2Data(p.Group)
	if err != nil {
		return nil, err
	}

	return solana.NewInstruction(CandyGuardProgramID, accounts, data), nil
}

// remainingAccounts добавляет аккаунты guard-ов в порядке default guard set.
func remainingAccounts(p MintParams) (solana.AccountMetaSlice, error) {
	var out solana.AccountMetaSlice

	if tp := p.Args.TokenPayment; tp != nil {
		source, _, err := solana.FindAssociatedTokenAddress(p.Payer, tp.Mint)
		if err != nil {
			return nil, fmt.Errorf("failed to derive payment source account: %w", err)
		}
		out = append(out,
			meta(source, true, false),
			meta(tp.DestinationAta, true, false),
		)
	}

	if ml := p.Args.MintLimit; ml != nil {
		counter, err := FindMintCounterPDA(ml.ID, p.Minter, p.Guard.PublicKey, p.Machine.PublicKey)
		if err != nil {
			return nil, err
		}
		out = append(out, meta(counter, true, false))
	}

	return out, nil
}

// encodeMintV2Data: discriminator, mint_args (bytes), label (Option<String>).
// tokenPayment и mintLimit не требуют байтов в mint_args – только аккаунты.
func encodeMintV2Data(group string) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)

	if err := enc.WriteBytes(mintV2Discriminator[:], false); err != nil {
		return nil, err
	}
	if err := enc.WriteBytes(nil, true); err != nil {
		return nil, err
	}
	if group == "" {
		if err := enc.WriteOption(false); err != nil {
			return nil, err
		}
	} else {
		if err := enc.WriteOption(true); err != nil {
			return nil, err
		}
		if err := enc.WriteString(group); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
