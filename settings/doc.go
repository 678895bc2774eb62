// Package settings serves dynamic configuration rows through a TTL cache.
//
// Reads go cache first, then to the [store.SettingStore]; writes go to the
// store and then drop the row's id key and its "category_<name>" key. The
// default cache lives in process memory; [NewRedisCache] shares it across
// instances.
//
// [RequirementsSource] turns the "password" category into
// [password.Requirements], so policy edits take effect within one cache TTL
// without a restart.
package settings
