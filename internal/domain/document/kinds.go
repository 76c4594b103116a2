package document

// States for the built-in document kinds. Each kind's rule set is declared
// independently so it can be audited and tested on its own.
const (
	// Purchase order
	StatePODraft           State = "PO_DRAFT"
	StatePOPendingApproval State = "PENDING_APPROVAL"
	StatePOApproved        State = "APPROVED"
	StatePOOrdered         State = "ORDERED"
	StatePOReceived        State = "RECEIVED"
	StatePOCompleted       State = "COMPLETED"
	StatePOCancelled       State = "CANCELLED"

	// Cut plan
	StateCutDraft      State = "CUT_DRAFT"
	StateCutConfirmed  State = "CUT_CONFIRMED"
	StateCutInProgress State = "CUTTING_IN_PROGRESS"
	StateCutCompleted  State = "CUT_COMPLETED"
	StateCutCancelled  State = "CUT_CANCELLED"

	// Subcontract order
	StateSubDraft         State = "SUB_DRAFT"
	StateSubIssued        State = "SUB_ISSUED"
	StateSubInProgress    State = "SUB_IN_PROGRESS"
	StateSubGoodsReceived State = "SUB_GOODS_RECEIVED"
	StateSubSettled       State = "SUB_SETTLED"
	StateSubCancelled     State = "SUB_CANCELLED"

	// Stock transfer
	StateTransferDraft     State = "TRANSFER_DRAFT"
	StateTransferInTransit State = "TRANSFER_IN_TRANSIT"
	StateTransferReceived  State = "TRANSFER_RECEIVED"
	StateTransferCancelled State = "TRANSFER_CANCELLED"

	// Garment production stage
	StateStageCutting   State = "STAGE_CUTTING"
	StateStageSewing    State = "STAGE_SEWING"
	StateStageFinishing State = "STAGE_FINISHING"
	StateStageQC        State = "STAGE_QC"
	StateStagePacked    State = "STAGE_PACKED"
)

// PurchaseOrderTable declares the purchase order lifecycle
func PurchaseOrderTable() TransitionTable {
	return TransitionTable{
		Initial: StatePODraft,
		States: map[State]StateSpec{
			StatePODraft:           {Label: "Draft", Color: "gray", Next: []State{StatePOPendingApproval, StatePOCancelled}},
			StatePOPendingApproval: {Label: "Pending Approval", Color: "orange", Next: []State{StatePOApproved, StatePODraft, StatePOCancelled}},
			StatePOApproved:        {Label: "Approved", Color: "blue", Next: []State{StatePOOrdered, StatePOCancelled}},
			StatePOOrdered:         {Label: "Ordered", Color: "purple", Next: []State{StatePOReceived}},
			StatePOReceived:        {Label: "Received", Color: "cyan", Next: []State{StatePOCompleted}},
			StatePOCompleted:       {Label: "Completed", Color: "green"},
			StatePOCancelled:       {Label: "Cancelled", Color: "red"},
		},
	}
}

// CutPlanTable declares the fabric cutting plan lifecycle
func CutPlanTable() TransitionTable {
	return TransitionTable{
		Initial: StateCutDraft,
		States: map[State]StateSpec{
			StateCutDraft:      {Label: "Draft", Color: "gray", Next: []State{StateCutConfirmed, StateCutCancelled}},
			StateCutConfirmed:  {Label: "Confirmed", Color: "blue", Next: []State{StateCutInProgress, StateCutCancelled}},
			StateCutInProgress: {Label: "Cutting", Color: "orange", Next: []State{StateCutCompleted}},
			StateCutCompleted:  {Label: "Completed", Color: "green"},
			StateCutCancelled:  {Label: "Cancelled", Color: "red"},
		},
	}
}

// SubcontractOrderTable declares the subcontract (outsourced sewing) lifecycle
func SubcontractOrderTable() TransitionTable {
	return TransitionTable{
		Initial: StateSubDraft,
		States: map[State]StateSpec{
			StateSubDraft:         {Label: "Draft", Color: "gray", Next: []State{StateSubIssued, StateSubCancelled}},
			StateSubIssued:        {Label: "Issued", Color: "blue", Next: []State{StateSubInProgress, StateSubCancelled}},
			StateSubInProgress:    {Label: "In Progress", Color: "orange", Next: []State{StateSubGoodsReceived}},
			StateSubGoodsReceived: {Label: "Goods Received", Color: "cyan", Next: []State{StateSubSettled}},
			StateSubSettled:       {Label: "Settled", Color: "green"},
			StateSubCancelled:     {Label: "Cancelled", Color: "red"},
		},
	}
}

// StockTransferTable declares the inter-warehouse transfer lifecycle
func StockTransferTable() TransitionTable {
	return TransitionTable{
		Initial: StateTransferDraft,
		States: map[State]StateSpec{
			StateTransferDraft:     {Label: "Draft", Color: "gray", Next: []State{StateTransferInTransit, StateTransferCancelled}},
			StateTransferInTransit: {Label: "In Transit", Color: "orange", Next: []State{StateTransferReceived}},
			StateTransferReceived:  {Label: "Received", Color: "green"},
			StateTransferCancelled: {Label: "Cancelled", Color: "red"},
		},
	}
}

// GarmentStageTable declares the garment production stage flow.
// A QC failure sends the batch back to sewing for rework.
func GarmentStageTable() TransitionTable {
	return TransitionTable{
		Initial: StateStageCutting,
		States: map[State]StateSpec{
			StateStageCutting:   {Label: "Cutting", Color: "gray", Next: []State{StateStageSewing}},
			StateStageSewing:    {Label: "Sewing", Color: "blue", Next: []State{StateStageFinishing}},
			StateStageFinishing: {Label: "Finishing", Color: "orange", Next: []State{StateStageQC}},
			StateStageQC:        {Label: "Quality Control", Color: "purple", Next: []State{StateStagePacked, StateStageSewing}},
			StateStagePacked:    {Label: "Packed", Color: "green"},
		},
	}
}

// NewDefaultRegistry builds a registry with every built-in kind registered
func NewDefaultRegistry() (*Registry, error) {
	registry := NewRegistry()

	kinds := map[DocumentKind]TransitionTable{
		KindPurchaseOrder:    PurchaseOrderTable(),
		KindCutPlan:          CutPlanTable(),
		KindSubcontractOrder: SubcontractOrderTable(),
		KindStockTransfer:    StockTransferTable(),
		KindGarmentStage:     GarmentStageTable(),
	}

	for kind, table := range kinds {
		if err := registry.Register(kind, table); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
