package kw41z

// Register is the address of a 32-bit transceiver register as seen on the Bus.
type Register uint32

// --- ZLL (802.15.4 link layer) register addresses ---

const (
	_ZLL_BASE = 0x4005D000

	_IRQSTS            Register = _ZLL_BASE + 0x00
	_PHY_CTRL          Register = _ZLL_BASE + 0x04
	_EVENT_TMR         Register = _ZLL_BASE + 0x08
	_TIMESTAMP         Register = _ZLL_BASE + 0x0C
	_T1CMP             Register = _ZLL_BASE + 0x10
	_T2CMP             Register = _ZLL_BASE + 0x14
	_T3CMP             Register = _ZLL_BASE + 0x1C
	_T4CMP             Register = _ZLL_BASE + 0x20
	_PA_PWR            Register = _ZLL_BASE + 0x24
	_CHANNEL_NUM0      Register = _ZLL_BASE + 0x28
	_LQI_AND_RSSI      Register = _ZLL_BASE + 0x2C
	_MACSHORTADDRS0    Register = _ZLL_BASE + 0x30
	_MACLONGADDRS0_LSB Register = _ZLL_BASE + 0x34
	_MACLONGADDRS0_MSB Register = _ZLL_BASE + 0x38
	_RX_FRAME_FILTER   Register = _ZLL_BASE + 0x3C
	_CCA_LQI_CTRL      Register = _ZLL_BASE + 0x40
	_SAM_CTRL          Register = _ZLL_BASE + 0x60
	_SAM_TABLE         Register = _ZLL_BASE + 0x64
	_SAM_MATCH         Register = _ZLL_BASE + 0x68
	_SAM_FREE_IDX      Register = _ZLL_BASE + 0x6C
	_ACKDELAY          Register = _ZLL_BASE + 0x74
	_SEQ_STATE         Register = _ZLL_BASE + 0x88
	_TMR_PRESCALE      Register = _ZLL_BASE + 0x8C
)

// Transceiver sequence manager and radio SIM registers.
const (
	_XCVR_CTRL       Register = 0x4005C010
	_XCVR_END_OF_SEQ Register = 0x4005C190
	_RSIM_MAC_MSB    Register = 0x40059004
	_RSIM_MAC_LSB    Register = 0x40059008
	_SIM_UIDML       Register = 0x40048058
	_SIM_UIDL        Register = 0x40048060
)

// IRQSTS bits. The IRQ bits are write-one-to-clear, the TMRxMSK bits are plain
// read/write and RX_FRAME_LENGTH is read-only.
const (
	_IRQSTS_SEQIRQ      = 1 << 0
	_IRQSTS_TXIRQ       = 1 << 1
	_IRQSTS_RXIRQ       = 1 << 2
	_IRQSTS_CCAIRQ      = 1 << 3
	_IRQSTS_RXWTRMRKIRQ = 1 << 4
	_IRQSTS_FILTERFAIL  = 1 << 5
	_IRQSTS_PLL_UNLOCK  = 1 << 6
	_IRQSTS_RX_FRM_PEND = 1 << 7
	_IRQSTS_CCA         = 1 << 11
	_IRQSTS_CRCVALID    = 1 << 12
	_IRQSTS_TMR1IRQ     = 1 << 16
	_IRQSTS_TMR2IRQ     = 1 << 17
	_IRQSTS_TMR3IRQ     = 1 << 18
	_IRQSTS_TMR4IRQ     = 1 << 19
	_IRQSTS_TMR1MSK     = 1 << 20
	_IRQSTS_TMR2MSK     = 1 << 21
	_IRQSTS_TMR3MSK     = 1 << 22
	_IRQSTS_TMR4MSK     = 1 << 23

	_IRQSTS_TMR_ALL_MSK = _IRQSTS_TMR1MSK | _IRQSTS_TMR2MSK | _IRQSTS_TMR3MSK | _IRQSTS_TMR4MSK

	_IRQSTS_RX_FRAME_LENGTH_SHIFT = 24
	_IRQSTS_RX_FRAME_LENGTH_MASK  = 0x7F << _IRQSTS_RX_FRAME_LENGTH_SHIFT
)

// PHY_CTRL bits.
const (
	_PHY_CTRL_XCVSEQ_MASK    = 0x7
	_PHY_CTRL_AUTOACK        = 1 << 3
	_PHY_CTRL_RXACKRQD       = 1 << 4
	_PHY_CTRL_CCABFRTX       = 1 << 5
	_PHY_CTRL_SLOTTED        = 1 << 6
	_PHY_CTRL_TMRTRIGEN      = 1 << 7
	_PHY_CTRL_PB_ERR_MSK     = 1 << 8
	_PHY_CTRL_SEQMSK         = 1 << 9
	_PHY_CTRL_TXMSK          = 1 << 10
	_PHY_CTRL_RXMSK          = 1 << 11
	_PHY_CTRL_CCAMSK         = 1 << 12
	_PHY_CTRL_RX_WMRK_MSK    = 1 << 13
	_PHY_CTRL_FILTERFAIL_MSK = 1 << 14
	_PHY_CTRL_PLL_UNLOCK_MSK = 1 << 15
	_PHY_CTRL_CRC_MSK        = 1 << 16
	_PHY_CTRL_WAKE_MSK       = 1 << 17
	_PHY_CTRL_TSM_MSK        = 1 << 18
	_PHY_CTRL_TMR1CMP_EN     = 1 << 20
	_PHY_CTRL_TMR2CMP_EN     = 1 << 21
	_PHY_CTRL_TMR3CMP_EN     = 1 << 22
	_PHY_CTRL_TMR4CMP_EN     = 1 << 23
	_PHY_CTRL_PROMISCUOUS    = 1 << 25
	_PHY_CTRL_CCATYPE_SHIFT  = 27
	_PHY_CTRL_CCATYPE_MASK   = 0x3 << _PHY_CTRL_CCATYPE_SHIFT
	_PHY_CTRL_TRCV_MSK       = 1 << 31
)

// CCA types for PHY_CTRL.CCATYPE.
const (
	_CCA_ED    = 0 // energy detect, CCA bit inactive
	_CCA_MODE1 = 1 // energy detect, CCA bit active
	_CCA_MODE2 = 2
	_CCA_MODE3 = 3
)

// LQI_AND_RSSI fields.
const (
	_LQI_VALUE_MASK    = 0xFF
	_RSSI_SHIFT        = 8
	_RSSI_MASK         = 0xFF << _RSSI_SHIFT
	_CCA1_ED_FNL_SHIFT = 16
	_CCA1_ED_FNL_MASK  = 0xFF << _CCA1_ED_FNL_SHIFT
)

// MACSHORTADDRS0 fields.
const (
	_MACPANID0_MASK       = 0xFFFF
	_MACSHORTADDRS0_SHIFT = 16
	_MACSHORTADDRS0_MASK  = 0xFFFF << _MACSHORTADDRS0_SHIFT
)

// RX_FRAME_FILTER bits.
const (
	_RX_FRAME_FILTER_BEACON_FT          = 1 << 0
	_RX_FRAME_FILTER_DATA_FT            = 1 << 1
	_RX_FRAME_FILTER_ACK_FT             = 1 << 2
	_RX_FRAME_FILTER_CMD_FT             = 1 << 3
	_RX_FRAME_FILTER_NS_FT              = 1 << 4
	_RX_FRAME_FILTER_ACTIVE_PROMISCUOUS = 1 << 5
	_RX_FRAME_FILTER_FRM_VER_SHIFT      = 6
	_RX_FRAME_FILTER_FRM_VER_MASK       = 0x3 << _RX_FRAME_FILTER_FRM_VER_SHIFT
)

// CCA_LQI_CTRL fields.
const (
	_CCA1_THRESH_MASK      = 0xFF
	_LQI_OFFSET_COMP_SHIFT = 16
	_LQI_OFFSET_COMP_MASK  = 0xFF << _LQI_OFFSET_COMP_SHIFT
)

const _ACKDELAY_MASK = 0x3F

// SAM_CTRL / SAM_TABLE / SAM_FREE_IDX fields.
const (
	_SAM_CTRL_SAP0_EN = 1 << 0

	_SAM_TABLE_CHECKSUM_SHIFT = 0
	_SAM_TABLE_CHECKSUM_MASK  = 0xFFFF << _SAM_TABLE_CHECKSUM_SHIFT
	_SAM_TABLE_INDEX_SHIFT    = 16
	_SAM_TABLE_INDEX_MASK     = 0x7F << _SAM_TABLE_INDEX_SHIFT
	_SAM_TABLE_INDEX_WR       = 1 << 23
	_SAM_TABLE_INDEX_EN       = 1 << 24
	_SAM_TABLE_INDEX_INV      = 1 << 25
	_SAM_TABLE_INVALIDATE_ALL = 1 << 26
	_SAM_TABLE_FIND_FREE_IDX  = 1 << 27
	_SAM_TABLE_SAM_BUSY       = 1 << 31

	_SAM_FREE_IDX_SAP0_1ST_MASK = 0xFF
)

const _SEQ_STATE_MASK = 0x1F

const (
	_EVENT_TMR_SHIFT = 0
	_EVENT_TMR_MASK  = 0xFFFFFF
)

// XCVR_CTRL / END_OF_SEQ fields.
const (
	_XCVR_CTRL_TSM_COUNT_SHIFT = 24
	_XCVR_CTRL_TSM_COUNT_MASK  = 0xFF << _XCVR_CTRL_TSM_COUNT_SHIFT
	_END_OF_TX_WU_SHIFT        = 0
	_END_OF_TX_WU_MASK         = 0xFF << _END_OF_TX_WU_SHIFT
)
