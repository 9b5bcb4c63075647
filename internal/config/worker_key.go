package config

type WorkerKeyStruct struct {
	WeakAreaSyncQueue string
}

var WorkerKey = &WorkerKeyStruct{
	WeakAreaSyncQueue: "weak_area_sync_queue",
}
