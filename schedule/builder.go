package schedule

import "github.com/npucs/npucs/model"

// CommandBuilder produces the register-level payload for one command, given the
// static descriptor of the agent that owns it and the stripe being scheduled. The
// scheduler only decides *when* each command is emitted and *what it must wait on*;
// it never computes register contents itself, mirroring how Scheduler.cpp calls out
// to DmaRegisters/MceRegisters/PleRegisters rather than inlining their logic
// (SPEC_FULL.md §4.6). Concrete implementations live in the dma, mce and ple
// packages and are composed by the compile package before a Scheduler is built.
type CommandBuilder interface {
	// NumIfmChunks and NumOfmChunks are pure functions of the descriptor and stripe
	// id (SPEC_FULL.md §4.2's "chunk count as pure function" requirement) — the
	// scheduler calls them to know how many LoadIfmStripe/StoreOfmStripe commands
	// to emit for one stripe.
	NumIfmChunks(ifm *model.IfmSDesc, stripeID uint32) uint32
	NumOfmChunks(ofm *model.OfmSDesc, stripeID uint32) uint32

	LoadIfmStripe(ifm *model.IfmSDesc, stripeID, chunkID uint32) model.DmaCommand
	LoadWgtStripe(wgt *model.WgtSDesc, stripeID uint32) model.DmaCommand
	StoreOfmStripe(ofm *model.OfmSDesc, stripeID, chunkID uint32) model.DmaCommand
	LoadPleCodeIntoSram(pleL *model.PleLDesc) model.DmaCommand

	ProgramMceStripe(mce *model.MceSDesc, stripeID uint32) model.ProgramMceStripeCommand
	StartMceStripe(mce *model.MceSDesc, stripeID uint32) model.StartMceStripeCommand
	ConfigMceif(mce *model.MceSDesc) model.ConfigMceifCommand

	StartPleStripe(pleS *model.PleSDesc, stripeID uint32) model.StartPleStripeCommand
}
